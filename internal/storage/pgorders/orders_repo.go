package pgorders

import (
	"context"
	"time"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const orderColumns = `
  id, tracking_number, access_code,
  client_name, client_phone,
  vehicle_summary, vehicle_vin, vehicle_lot,
  eta_text, public_status, last_update_note,
  created_at, updated_at`

// CreateOrder вставляет заказ вместе с дефолтным набором этапов одной транзакцией.
// Гонку по номеру (проверка уникальности в генераторе — best effort) ловит
// уникальный индекс: конфликт отдаём как ErrGenerationExhausted.
func (s *Storage) CreateOrder(ctx context.Context, in models.OrderCreateInput, trackingNumber, accessCode string, stageTitles []string) (*models.Order, error) {
	now := time.Now().UTC()
	orderID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO orders (
  id, tracking_number, access_code,
  client_name, client_phone,
  vehicle_summary, vehicle_vin, vehicle_lot,
  eta_text, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, orderID, trackingNumber, accessCode,
		nilIfEmpty(in.ClientName), nilIfEmpty(in.ClientPhone),
		in.VehicleSummary, nilIfEmpty(in.VehicleVIN), nilIfEmpty(in.VehicleLot),
		nilIfEmpty(in.EtaText), now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, errors.Wrap(models.ErrGenerationExhausted, "tracking number taken")
		}
		return nil, errors.Wrap(err, "insert order")
	}

	for i, title := range stageTitles {
		_, err := tx.Exec(ctx, `
INSERT INTO stages (id, order_id, title, status, date_text, comment, sort_order, created_at, updated_at)
VALUES ($1,$2,$3,$4,'-','',$5,$6,$6)
`, uuid.NewString(), orderID, title, models.StageStatusPending, int32(i), now)
		if err != nil {
			return nil, errors.Wrap(err, "insert stage")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *Storage) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.getOrder(ctx, `WHERE id = $1`, id)
}

func (s *Storage) GetOrderByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	return s.getOrder(ctx, `WHERE tracking_number = $1`, trackingNumber)
}

func (s *Storage) getOrder(ctx context.Context, where string, arg any) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders `+where, arg)
	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}
	if err := s.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrderHeadByTrackingNumber — заказ без дочерних коллекций,
// достаточно для проверки кода доступа.
func (s *Storage) GetOrderHeadByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE tracking_number = $1`, trackingNumber)
	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order head")
	}
	return o, nil
}

func (s *Storage) GetOrderHeadByID(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order head")
	}
	return o, nil
}

// ListOrders отдаёт заказы (новые сверху) с этапами — то, что нужно
// админскому списку.
func (s *Storage) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var out []*models.Order
	byID := map[string]*models.Order{}
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	if len(ids) == 0 {
		return []*models.Order{}, nil
	}

	srows, err := s.db.Query(ctx, `
SELECT id, order_id, title, status, date_text, comment, sort_order, created_at, updated_at
FROM stages
WHERE order_id = ANY($1)
ORDER BY order_id, sort_order ASC
`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select stages")
	}
	defer srows.Close()
	for srows.Next() {
		var st models.Stage
		if err := srows.Scan(&st.ID, &st.OrderID, &st.Title, &st.Status, &st.DateText, &st.Comment, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan stage")
		}
		if o, ok := byID[st.OrderID]; ok {
			o.Stages = append(o.Stages, &st)
		}
	}
	if srows.Err() != nil {
		return nil, errors.Wrap(srows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateOrderSummary(ctx context.Context, orderID string, etaText, publicStatus, lastUpdateNote *string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE orders
SET eta_text = $2, public_status = $3, last_update_note = $4, updated_at = now()
WHERE id = $1
`, orderID, etaText, publicStatus, lastUpdateNote)
	if err != nil {
		return errors.Wrap(err, "update order summary")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) SetAccessCode(ctx context.Context, orderID, accessCode string) error {
	tag, err := s.db.Exec(ctx, `UPDATE orders SET access_code = $2, updated_at = now() WHERE id = $1`, orderID, accessCode)
	if err != nil {
		return errors.Wrap(err, "set access code")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) SetEtaText(ctx context.Context, orderID, etaText string) error {
	tag, err := s.db.Exec(ctx, `UPDATE orders SET eta_text = $2, updated_at = now() WHERE id = $1`, orderID, etaText)
	if err != nil {
		return errors.Wrap(err, "set eta text")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE tracking_number = $1)`, trackingNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "tracking number exists")
	}
	return exists, nil
}

func (s *Storage) AccessCodeExists(ctx context.Context, accessCode string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE access_code = $1)`, accessCode).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "access code exists")
	}
	return exists, nil
}

func (s *Storage) loadChildren(ctx context.Context, o *models.Order) error {
	srows, err := s.db.Query(ctx, `
SELECT id, order_id, title, status, date_text, comment, sort_order, created_at, updated_at
FROM stages WHERE order_id = $1 ORDER BY sort_order ASC
`, o.ID)
	if err != nil {
		return errors.Wrap(err, "select stages")
	}
	defer srows.Close()
	for srows.Next() {
		var st models.Stage
		if err := srows.Scan(&st.ID, &st.OrderID, &st.Title, &st.Status, &st.DateText, &st.Comment, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return errors.Wrap(err, "scan stage")
		}
		o.Stages = append(o.Stages, &st)
	}
	if srows.Err() != nil {
		return errors.Wrap(srows.Err(), "rows")
	}

	points, err := s.ListRoutePoints(ctx, o.ID)
	if err != nil {
		return err
	}
	o.RoutePoints = points

	msgs, err := s.ListMessages(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Messages = msgs

	atts, err := s.ListAttachments(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Attachments = atts
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.TrackingNumber, &o.AccessCode,
		&o.ClientName, &o.ClientPhone,
		&o.VehicleSummary, &o.VehicleVIN, &o.VehicleLot,
		&o.EtaText, &o.PublicStatus, &o.LastUpdateNote,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
