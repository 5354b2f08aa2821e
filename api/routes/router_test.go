package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	evidencesvc "github.com/packproof/packproof-backend/internal/evidence"
	"github.com/packproof/packproof-backend/internal/ledger"
	ordersvc "github.com/packproof/packproof-backend/internal/orders"
	productsvc "github.com/packproof/packproof-backend/internal/products"
	reconcilesvc "github.com/packproof/packproof-backend/internal/reconcile"
	returnsvc "github.com/packproof/packproof-backend/internal/returns"
	"github.com/packproof/packproof-backend/pkg/config"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/logger"
	"github.com/packproof/packproof-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubLedgerService struct{}

func (stubLedgerService) ApplyMovement(ctx context.Context, tx *gorm.DB, input ledger.MovementInput) (*models.StockMovement, error) {
	panic("unimplemented")
}

func (stubLedgerService) Adjust(ctx context.Context, input ledger.MovementInput) (*models.StockMovement, error) {
	panic("unimplemented")
}

func (stubLedgerService) ListMovements(ctx context.Context, input ledger.ListMovementsInput) ([]models.StockMovement, error) {
	return []models.StockMovement{}, nil
}

func (stubLedgerService) QuantityFromMovements(ctx context.Context, productID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Get(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductService) UpdateDetails(ctx context.Context, input productsvc.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

type stubOrderService struct{}

func (stubOrderService) Create(ctx context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) UpdateStatus(ctx context.Context, input ordersvc.UpdateStatusInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) Ship(ctx context.Context, input ordersvc.ShipOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) Get(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) List(ctx context.Context, input ordersvc.ListOrdersInput) ([]models.Order, error) {
	return []models.Order{}, nil
}

type stubReturnService struct{}

func (stubReturnService) Open(ctx context.Context, input returnsvc.OpenReturnInput) (*models.Return, error) {
	panic("unimplemented")
}

func (stubReturnService) Inspect(ctx context.Context, input returnsvc.TransitionInput) (*models.Return, error) {
	panic("unimplemented")
}

func (stubReturnService) Approve(ctx context.Context, input returnsvc.ApproveReturnInput) (*models.Return, error) {
	panic("unimplemented")
}

func (stubReturnService) Reject(ctx context.Context, input returnsvc.TransitionInput) (*models.Return, error) {
	panic("unimplemented")
}

func (stubReturnService) Complete(ctx context.Context, input returnsvc.TransitionInput) (*models.Return, error) {
	panic("unimplemented")
}

func (stubReturnService) Get(ctx context.Context, workspaceID, returnID uuid.UUID) (*models.Return, error) {
	panic("unimplemented")
}

type stubReconcileService struct{}

func (stubReconcileService) Reconcile(ctx context.Context, input reconcilesvc.ReconcileInput) ([]models.StockMovement, error) {
	panic("unimplemented")
}

type stubEvidenceService struct{}

func (stubEvidenceService) Save(ctx context.Context, input evidencesvc.SaveVideoInput) (*models.VideoEvidence, error) {
	panic("unimplemented")
}

func (stubEvidenceService) Verify(ctx context.Context, input evidencesvc.VerifyInput) (*evidencesvc.VerificationResult, error) {
	panic("unimplemented")
}

func (stubEvidenceService) SavePackingChecklist(ctx context.Context, input evidencesvc.ChecklistInput) (*models.PackingEvidence, error) {
	panic("unimplemented")
}

func (stubEvidenceService) VerifyForExport(ctx context.Context, workspaceID, orderID uuid.UUID) ([]evidencesvc.VerificationResult, error) {
	return []evidencesvc.VerificationResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter() http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubLedgerService{},
		stubProductService{},
		stubOrderService{},
		stubReturnService{},
		stubReconcileService{},
		stubEvidenceService{},
	)
}

func withIdentity(req *http.Request) *http.Request {
	req.Header.Set("X-Workspace-Id", uuid.NewString())
	req.Header.Set("X-Actor-Id", uuid.NewString())
	return req
}

func TestHealthLiveNeedsNoIdentity(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestAPIRejectsMissingIdentityHeaders(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers got %d", resp.Code)
	}
}

func TestAPIRejectsMalformedIdentityHeaders(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-Workspace-Id", "not-a-uuid")
	req.Header.Set("X-Actor-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed workspace id got %d", resp.Code)
	}
}

func TestListOrdersWithIdentitySucceeds(t *testing.T) {
	router := newTestRouter()
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order listing got %d", resp.Code)
	}
}

func TestShipRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter()
	target := "/api/v1/orders/" + uuid.NewString() + "/ship"
	req := withIdentity(httptest.NewRequest(http.MethodPost, target, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}

func TestExportCheckRoute(t *testing.T) {
	router := newTestRouter()
	target := "/api/v1/orders/" + uuid.NewString() + "/evidence/export-check"
	req := withIdentity(httptest.NewRequest(http.MethodGet, target, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for export check got %d", resp.Code)
	}
}
