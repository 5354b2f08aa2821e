package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Evidence     EvidenceConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKPROOF_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKPROOF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACKPROOF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKPROOF_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PACKPROOF_DB_DSN"`
	Driver string `envconfig:"PACKPROOF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACKPROOF_DB_HOST"`
	LegacyPort     int    `envconfig:"PACKPROOF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACKPROOF_DB_USER"`
	LegacyPassword string `envconfig:"PACKPROOF_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACKPROOF_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACKPROOF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKPROOF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKPROOF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKPROOF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKPROOF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKPROOF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACKPROOF_REDIS_ADDR"`
	Password     string        `envconfig:"PACKPROOF_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKPROOF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKPROOF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKPROOF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKPROOF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKPROOF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKPROOF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EvidenceConfig controls where packing video artifacts live on disk.
type EvidenceConfig struct {
	RootDir        string `envconfig:"PACKPROOF_EVIDENCE_ROOT_DIR" required:"true"`
	MaxUploadMB    int    `envconfig:"PACKPROOF_EVIDENCE_MAX_UPLOAD_MB" default:"500"`
	AllowedFormats string `envconfig:"PACKPROOF_EVIDENCE_ALLOWED_FORMATS" default:".mp4,.webm,.mkv"`
}

// MaxUploadBytes returns the configured upload ceiling in bytes.
func (e EvidenceConfig) MaxUploadBytes() int64 {
	return int64(e.MaxUploadMB) * 1024 * 1024
}

// Extensions returns the normalized list of allowed artifact extensions.
func (e EvidenceConfig) Extensions() []string {
	parts := strings.Split(e.AllowedFormats, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		out = append(out, p)
	}
	return out
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PACKPROOF_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PACKPROOF_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
