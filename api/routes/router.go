package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/packproof/packproof-backend/api/controllers"
	"github.com/packproof/packproof-backend/api/middleware"
	evidencesvc "github.com/packproof/packproof-backend/internal/evidence"
	"github.com/packproof/packproof-backend/internal/ledger"
	ordersvc "github.com/packproof/packproof-backend/internal/orders"
	productsvc "github.com/packproof/packproof-backend/internal/products"
	reconcilesvc "github.com/packproof/packproof-backend/internal/reconcile"
	returnsvc "github.com/packproof/packproof-backend/internal/returns"
	"github.com/packproof/packproof-backend/pkg/config"
	"github.com/packproof/packproof-backend/pkg/db"
	"github.com/packproof/packproof-backend/pkg/logger"
	"github.com/packproof/packproof-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ledgerService ledger.Service,
	productService productsvc.Service,
	orderService ordersvc.Service,
	returnService returnsvc.Service,
	reconcileService reconcilesvc.Service,
	evidenceService evidencesvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Get("/{productId}/movements", controllers.ProductMovements(ledgerService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/", controllers.ListOrders(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.Post("/{orderId}/status", controllers.UpdateOrderStatus(orderService, logg))
			r.Post("/{orderId}/ship", controllers.ShipOrder(orderService, logg))
			r.Post("/{orderId}/returns", controllers.OpenReturn(returnService, logg))
			r.Post("/{orderId}/evidence", controllers.SaveEvidence(evidenceService, cfg.Evidence.MaxUploadBytes(), logg))
			r.Post("/{orderId}/packing-checklist", controllers.SavePackingChecklist(evidenceService, logg))
			r.Get("/{orderId}/evidence/export-check", controllers.EvidenceExportCheck(evidenceService, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/{returnId}", controllers.ReturnDetail(returnService, logg))
			r.Post("/{returnId}/inspect", controllers.InspectReturn(returnService, logg))
			r.Post("/{returnId}/approve", controllers.ApproveReturn(returnService, logg))
			r.Post("/{returnId}/reject", controllers.RejectReturn(returnService, logg))
			r.Post("/{returnId}/complete", controllers.CompleteReturn(returnService, logg))
		})

		r.Post("/reconciliations", controllers.Reconcile(reconcileService, logg))

		r.Post("/evidence/{videoId}/verify", controllers.VerifyEvidence(evidenceService, logg))
	})

	return r
}
