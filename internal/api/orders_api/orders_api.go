package orders_api

import (
	"context"
	"net/http"
	"time"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/ratelimit"
	"github.com/BearBump/CarTrace/internal/services/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// OrderService — то, что API нужно от сервисного слоя.
type OrderService interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ResolveOrder(ctx context.Context, trackingNumber string) (*models.Order, error)
	UpdateOrderSummary(ctx context.Context, orderID, etaText, publicStatus, lastUpdateNote string) error
	RegenerateAccessCode(ctx context.Context, orderID string) (string, error)
	ShiftEta(ctx context.Context, orderID string, days int) (string, error)

	UpdateStage(ctx context.Context, orderID, stageID string, status models.StageStatus, dateText, comment string) error
	ReorderStages(ctx context.Context, orderID string, orderedIDs []string) error
	AdvanceStage(ctx context.Context, orderID string) error
	CompleteCurrentStage(ctx context.Context, orderID string) error

	AddRoutePoint(ctx context.Context, orderID, label string, lat, lng float64, typ models.RoutePointType) (*models.RoutePoint, error)
	UpdateRoutePoint(ctx context.Context, orderID, pointID, label string, lat, lng float64, typ models.RoutePointType) error
	SetCurrentRoutePoint(ctx context.Context, orderID, pointID string) error
	DeleteRoutePoint(ctx context.Context, orderID, pointID string) error

	ListClientMessages(ctx context.Context, trackingNumber, accessCode, ip string) ([]*models.Message, error)
	SendClientMessage(ctx context.Context, trackingNumber, accessCode, ip, text string) (*models.Message, error)
	ListOrderMessages(ctx context.Context, orderID string) ([]*models.Message, error)
	SendAdminMessage(ctx context.Context, orderID, text string) (*models.Message, error)

	SaveAttachments(ctx context.Context, orderID string, stageID *string, uploads []orders.Upload) ([]*models.Attachment, error)
	ListClientAttachments(ctx context.Context, trackingNumber, accessCode, ip string) ([]*models.Attachment, error)
	FetchAttachment(ctx context.Context, attachmentID, trackingNumber, accessCode, ip string, isAdmin bool) (*models.Attachment, []byte, error)
}

// Limits — лимиты публичных ручек на окно RateLimitWindow.
// Нулевой лимит отключает проверку для ручки.
type Limits struct {
	Window    time.Duration
	Track     int64
	ChatSend  int64
	Lists     int64
	FileFetch int64
}

type OrdersAPI struct {
	svc        OrderService
	limiter    ratelimit.Limiter
	limits     Limits
	adminToken string
}

func New(svc OrderService, limiter ratelimit.Limiter, limits Limits, adminToken string) *OrdersAPI {
	if limits.Window <= 0 {
		limits.Window = 5 * time.Minute
	}
	return &OrdersAPI{
		svc:        svc,
		limiter:    limiter,
		limits:     limits,
		adminToken: adminToken,
	}
}

func (a *OrdersAPI) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.With(a.rateLimit("track", a.limits.Track)).Post("/track", a.handleTrack)

		r.Route("/chat", func(r chi.Router) {
			r.With(a.rateLimit("chat-list", a.limits.Lists)).Get("/list", a.handleChatList)
			r.With(a.rateLimit("chat-send", a.limits.ChatSend)).Post("/send", a.handleChatSend)
		})

		r.Route("/files", func(r chi.Router) {
			r.With(a.rateLimit("files-list", a.limits.Lists)).Get("/list", a.handleFilesList)
			r.With(a.rateLimit("files-fetch", a.limits.FileFetch)).Get("/{id}", a.handleFileFetch)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.adminAuth)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", a.handleAdminListOrders)
				r.Post("/", a.handleAdminCreateOrder)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.handleAdminGetOrder)
					r.Patch("/summary", a.handleAdminUpdateSummary)
					r.Post("/eta-shift", a.handleAdminShiftEta)
					r.Post("/access-code/regenerate", a.handleAdminRegenerateCode)

					r.Patch("/stages/{stageID}", a.handleAdminUpdateStage)
					r.Post("/stages/reorder", a.handleAdminReorderStages)
					r.Post("/stages/advance", a.handleAdminAdvanceStage)
					r.Post("/stages/complete", a.handleAdminCompleteStage)

					r.Post("/route", a.handleAdminAddRoutePoint)
					r.Patch("/route/{pointID}", a.handleAdminUpdateRoutePoint)
					r.Post("/route/{pointID}/current", a.handleAdminSetCurrentRoutePoint)
					r.Delete("/route/{pointID}", a.handleAdminDeleteRoutePoint)

					r.Get("/messages", a.handleAdminListMessages)
					r.Post("/messages", a.handleAdminSendMessage)

					r.Post("/files", a.handleAdminUploadFiles)
				})
			})

			r.Get("/files/{id}", a.handleAdminFileFetch)
		})
	})

	return r
}
