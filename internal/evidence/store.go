package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrArtifactMissing reports that an artifact is no longer on disk.
var ErrArtifactMissing = errors.New("artifact missing")

// SavedArtifact describes a persisted artifact.
type SavedArtifact struct {
	Path      string
	SHA256    string
	SizeBytes int64
}

// Store persists binary artifacts and computes their content digest.
type Store interface {
	Save(ctx context.Context, relPath string, src io.Reader) (*SavedArtifact, error)
	Digest(ctx context.Context, path string) (string, error)
}

type diskStore struct {
	root     string
	maxBytes int64
}

// NewDiskStore builds a store rooted at dir. Artifacts larger than
// maxBytes are rejected mid-stream; zero disables the ceiling.
func NewDiskStore(root string, maxBytes int64) (Store, error) {
	if root == "" {
		return nil, fmt.Errorf("evidence root dir required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence root: %w", err)
	}
	return &diskStore{root: root, maxBytes: maxBytes}, nil
}

// Save streams src to disk while hashing it, then makes the file read-only
// at the filesystem level. The permission drop is the storage-layer lock
// demanded of evidence artifacts; nothing in this process re-opens the
// file for writing afterwards.
func (s *diskStore) Save(ctx context.Context, relPath string, src io.Reader) (*SavedArtifact, error) {
	if relPath == "" {
		return nil, fmt.Errorf("artifact path required")
	}

	full := filepath.Join(s.root, filepath.Clean(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), reader)
	if err != nil {
		file.Close()
		os.Remove(full)
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		file.Close()
		os.Remove(full)
		return nil, fmt.Errorf("artifact exceeds %d bytes", s.maxBytes)
	}
	if err := file.Close(); err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Chmod(full, 0o444); err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("lock artifact read-only: %w", err)
	}

	return &SavedArtifact{
		Path:      full,
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes: size,
	}, nil
}

// Digest re-reads the artifact from disk and recomputes its hash.
func (s *diskStore) Digest(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrArtifactMissing
		}
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
