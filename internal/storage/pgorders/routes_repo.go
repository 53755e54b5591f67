package pgorders

import (
	"context"
	"time"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) ListRoutePoints(ctx context.Context, orderID string) ([]*models.RoutePoint, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, label, lat, lng, type, sort_order, created_at
FROM route_points WHERE order_id = $1 ORDER BY sort_order ASC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select route points")
	}
	defer rows.Close()

	var out []*models.RoutePoint
	for rows.Next() {
		var p models.RoutePoint
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Label, &p.Lat, &p.Lng, &p.Type, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan route point")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// AddRoutePoint вставляет точку; для type=current сперва разжалует прежнюю
// текущую в checkpoint — в той же транзакции, чтобы снаружи никогда не было
// видно двух текущих точек. sort_order новой точки = количеству точек заказа.
func (s *Storage) AddRoutePoint(ctx context.Context, orderID, label string, lat, lng float64, typ models.RoutePointType) (*models.RoutePoint, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if typ == models.RoutePointCurrent {
		if err := demoteCurrentTx(ctx, tx, orderID); err != nil {
			return nil, err
		}
	}

	var count int32
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM route_points WHERE order_id = $1`, orderID).Scan(&count); err != nil {
		return nil, errors.Wrap(err, "count route points")
	}

	p := &models.RoutePoint{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Label:     label,
		Lat:       lat,
		Lng:       lng,
		Type:      typ,
		SortOrder: count,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx, `
INSERT INTO route_points (id, order_id, label, lat, lng, type, sort_order, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, p.ID, p.OrderID, p.Label, p.Lat, p.Lng, p.Type, p.SortOrder, p.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert route point")
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return p, nil
}

func (s *Storage) UpdateRoutePoint(ctx context.Context, orderID, pointID, label string, lat, lng float64, typ models.RoutePointType) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if typ == models.RoutePointCurrent {
		if err := demoteCurrentTx(ctx, tx, orderID); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
UPDATE route_points SET label = $3, lat = $4, lng = $5, type = $6
WHERE id = $1 AND order_id = $2
`, pointID, orderID, label, lat, lng, typ)
	if err != nil {
		return errors.Wrap(err, "update route point")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *Storage) SetCurrentRoutePoint(ctx context.Context, orderID, pointID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := demoteCurrentTx(ctx, tx, orderID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE route_points SET type = $3 WHERE id = $1 AND order_id = $2
`, pointID, orderID, models.RoutePointCurrent)
	if err != nil {
		return errors.Wrap(err, "promote route point")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *Storage) DeleteRoutePoint(ctx context.Context, orderID, pointID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM route_points WHERE id = $1 AND order_id = $2`, pointID, orderID)
	if err != nil {
		return errors.Wrap(err, "delete route point")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func demoteCurrentTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
UPDATE route_points SET type = $2 WHERE order_id = $1 AND type = $3
`, orderID, models.RoutePointCheckpoint, models.RoutePointCurrent)
	return errors.Wrap(err, "demote current point")
}
