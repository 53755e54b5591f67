package pgorders

import (
	"context"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// CreateAttachments пишет метаданные пачки файлов и трогает заказ
// одной транзакцией: либо вся пачка, либо ничего.
func (s *Storage) CreateAttachments(ctx context.Context, orderID string, atts []*models.Attachment) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range atts {
		_, err := tx.Exec(ctx, `
INSERT INTO attachments (id, order_id, stage_id, filename, original_name, mime, size, type, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, a.ID, a.OrderID, a.StageID, a.Filename, a.OriginalName, a.Mime, a.Size, a.Type, a.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert attachment")
		}
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *Storage) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	var a models.Attachment
	err := s.db.QueryRow(ctx, `
SELECT id, order_id, stage_id, filename, original_name, mime, size, type, created_at
FROM attachments WHERE id = $1
`, id).Scan(&a.ID, &a.OrderID, &a.StageID, &a.Filename, &a.OriginalName, &a.Mime, &a.Size, &a.Type, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select attachment")
	}
	return &a, nil
}

// ListAttachments — новые сверху, как в клиентской вкладке файлов.
func (s *Storage) ListAttachments(ctx context.Context, orderID string) ([]*models.Attachment, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, stage_id, filename, original_name, mime, size, type, created_at
FROM attachments WHERE order_id = $1 ORDER BY created_at DESC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select attachments")
	}
	defer rows.Close()

	var out []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.StageID, &a.Filename, &a.OriginalName, &a.Mime, &a.Size, &a.Type, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan attachment")
		}
		out = append(out, &a)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
