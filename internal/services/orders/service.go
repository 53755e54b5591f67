package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/CarTrace/internal/accessgate"
	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/cache"
	"github.com/BearBump/CarTrace/internal/eta"
	"github.com/BearBump/CarTrace/internal/idgen"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/validate"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput, trackingNumber, accessCode string, stageTitles []string) (*models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
	GetOrderHeadByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderHeadByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	UpdateOrderSummary(ctx context.Context, orderID string, etaText, publicStatus, lastUpdateNote *string) error
	SetAccessCode(ctx context.Context, orderID, accessCode string) error
	SetEtaText(ctx context.Context, orderID, etaText string) error

	ListStages(ctx context.Context, orderID string) ([]*models.Stage, error)
	UpdateStage(ctx context.Context, orderID, stageID string, status models.StageStatus, dateText, comment string) error
	SetStageStatuses(ctx context.Context, orderID string, statuses map[string]models.StageStatus) error
	ReorderStages(ctx context.Context, orderID string, orderedIDs []string) error

	AddRoutePoint(ctx context.Context, orderID, label string, lat, lng float64, typ models.RoutePointType) (*models.RoutePoint, error)
	UpdateRoutePoint(ctx context.Context, orderID, pointID, label string, lat, lng float64, typ models.RoutePointType) error
	SetCurrentRoutePoint(ctx context.Context, orderID, pointID string) error
	DeleteRoutePoint(ctx context.Context, orderID, pointID string) error

	CreateMessage(ctx context.Context, orderID string, author models.MessageAuthor, text string) (*models.Message, error)
	ListMessages(ctx context.Context, orderID string) ([]*models.Message, error)

	CreateAttachments(ctx context.Context, orderID string, atts []*models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	ListAttachments(ctx context.Context, orderID string) ([]*models.Attachment, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// FileStore хранит байты вложений под непрозрачными именами.
type FileStore interface {
	Save(filename string, data []byte) error
	Read(filename string) ([]byte, error)
}

type Options struct {
	CacheTTL     time.Duration
	Topic        string
	DemoTracking bool
}

type Service struct {
	repo     Repository
	gen      *idgen.Generator
	gate     *accessgate.Gate
	cache    cache.BytesCache
	producer Publisher
	fileSt   FileStore
	opts     Options
}

func New(repo Repository, gen *idgen.Generator, gate *accessgate.Gate, c cache.BytesCache, producer Publisher, fileSt FileStore, opts Options) *Service {
	return &Service{
		repo:     repo,
		gen:      gen,
		gate:     gate,
		cache:    c,
		producer: producer,
		fileSt:   fileSt,
		opts:     opts,
	}
}

// CreateOrder генерирует номер и код, создаёт заказ с дефолтной цепочкой этапов.
func (s *Service) CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	in.VehicleSummary = strings.TrimSpace(in.VehicleSummary)
	if in.VehicleSummary == "" {
		return nil, errors.Wrap(models.ErrInvalidInput, "vehicleSummary is required")
	}
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	in.VehicleVIN = strings.TrimSpace(in.VehicleVIN)
	in.VehicleLot = strings.TrimSpace(in.VehicleLot)
	in.EtaText = strings.TrimSpace(in.EtaText)
	if in.ClientPhone != "" && !validate.Phone(in.ClientPhone) {
		return nil, errors.Wrap(models.ErrInvalidInput, "clientPhone is malformed")
	}

	trackingNumber, err := s.gen.TrackingNumber(ctx)
	if err != nil {
		return nil, err
	}
	accessCode, err := s.gen.AccessCode(ctx)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.CreateOrder(ctx, in, trackingNumber, accessCode, models.DefaultStageTitles)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, o.ID, o.TrackingNumber, messages.ReasonOrderCreated)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.repo.ListOrders(ctx)
}

// ResolveOrder — публичный трекинг по номеру, без кода доступа.
// Рендер кэшируется целиком; мутации сбрасывают ключ.
func (s *Service) ResolveOrder(ctx context.Context, trackingNumber string) (*models.Order, error) {
	trackingNumber = validate.NormalizeTrackingNumber(trackingNumber)
	if trackingNumber == "" {
		return nil, errors.Wrap(models.ErrInvalidInput, "trackingNumber is required")
	}
	if !validate.TrackingNumber(trackingNumber, s.opts.DemoTracking) {
		return nil, errors.Wrap(models.ErrInvalidInput, "invalid tracking number")
	}

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, currentKey(trackingNumber)); err == nil && ok {
			var o models.Order
			if json.Unmarshal(b, &o) == nil {
				return &o, nil
			}
		}
	}

	o, err := s.repo.GetOrderByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if b, err := json.Marshal(o); err == nil {
			_ = s.cache.Set(ctx, currentKey(trackingNumber), b, s.opts.CacheTTL)
		}
	}
	return o, nil
}

func (s *Service) UpdateOrderSummary(ctx context.Context, orderID, etaText, publicStatus, lastUpdateNote string) error {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}

	etaText = validate.NormalizeText(etaText, 40)
	publicStatus = validate.NormalizeText(publicStatus, 40)
	lastUpdateNote = validate.NormalizeText(lastUpdateNote, 200)

	if err := s.repo.UpdateOrderSummary(ctx, orderID, nilIfEmpty(etaText), nilIfEmpty(publicStatus), nilIfEmpty(lastUpdateNote)); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonSummaryUpdated)
	return nil
}

// RegenerateAccessCode выдаёт заказу новый код; старый перестаёт действовать.
func (s *Service) RegenerateAccessCode(ctx context.Context, orderID string) (string, error) {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	code, err := s.gen.AccessCode(ctx)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetAccessCode(ctx, orderID, code); err != nil {
		return "", err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonCodeRegenerated)
	return code, nil
}

// ShiftEta сдвигает срок доставки на days дней, сохраняя форму записи.
func (s *Service) ShiftEta(ctx context.Context, orderID string, days int) (string, error) {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	current := ""
	if o.EtaText != nil {
		current = *o.EtaText
	}
	next := eta.Shift(current, days, time.Now())

	if err := s.repo.SetEtaText(ctx, orderID, next); err != nil {
		return "", err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonEtaShifted)
	return next, nil
}

// invalidate сбрасывает кэш рендера и шлёт событие об обновлении заказа.
// И то и другое best effort: заказ уже изменён, реплики дочистят по событию.
func (s *Service) invalidate(ctx context.Context, orderID, trackingNumber, reason string) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, currentKey(trackingNumber)); err != nil {
			slog.Warn("cache invalidation failed", "tracking_number", trackingNumber, "err", err)
		}
	}
	if s.producer == nil || s.opts.Topic == "" {
		return
	}
	ev := messages.OrderUpdated{
		OrderID:        orderID,
		TrackingNumber: trackingNumber,
		Reason:         reason,
		UpdatedAt:      time.Now().UTC(),
	}
	b, _ := json.Marshal(ev)
	if err := s.producer.Publish(ctx, s.opts.Topic, []byte(orderID), b); err != nil {
		slog.Warn("order.updated publish failed", "order_id", orderID, "err", err)
	}
}

// ApplyOrderUpdated — обработчик события из Kafka: дропает кэш рендера.
// Вызывается и для собственных событий, повторный Del безвреден.
func (s *Service) ApplyOrderUpdated(ctx context.Context, ev messages.OrderUpdated) error {
	if ev.TrackingNumber == "" {
		return errors.New("tracking_number is required")
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, currentKey(ev.TrackingNumber))
}

func currentKey(trackingNumber string) string {
	return fmt.Sprintf("order:%s:current", trackingNumber)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
