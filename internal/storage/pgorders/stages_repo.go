package pgorders

import (
	"context"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) ListStages(ctx context.Context, orderID string) ([]*models.Stage, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, title, status, date_text, comment, sort_order, created_at, updated_at
FROM stages WHERE order_id = $1 ORDER BY sort_order ASC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select stages")
	}
	defer rows.Close()

	var out []*models.Stage
	for rows.Next() {
		var st models.Stage
		if err := rows.Scan(&st.ID, &st.OrderID, &st.Title, &st.Status, &st.DateText, &st.Comment, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan stage")
		}
		out = append(out, &st)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdateStage — прямая правка полей этапа админом (ручной override,
// мимо движка прогрессии). Всегда трогает updated_at заказа.
func (s *Storage) UpdateStage(ctx context.Context, orderID, stageID string, status models.StageStatus, dateText, comment string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE stages SET status = $3, date_text = $4, comment = $5, updated_at = now()
WHERE id = $1 AND order_id = $2
`, stageID, orderID, status, dateText, comment)
	if err != nil {
		return errors.Wrap(err, "update stage")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// SetStageStatuses применяет рассчитанные сервисом переходы статусов
// одной транзакцией и трогает updated_at заказа (даже при пустом наборе —
// advance без изменений всё равно считается обновлением заказа).
func (s *Storage) SetStageStatuses(ctx context.Context, orderID string, statuses map[string]models.StageStatus) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for stageID, status := range statuses {
		tag, err := tx.Exec(ctx, `
UPDATE stages SET status = $3, updated_at = now()
WHERE id = $1 AND order_id = $2
`, stageID, orderID, status)
		if err != nil {
			return errors.Wrap(err, "update stage status")
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// ReorderStages переназначает sort_order по позиции id в списке.
// Список обязан быть точной перестановкой этапов заказа; при расхождении
// ничего не меняем и отдаём ErrInvalidStageSet.
func (s *Storage) ReorderStages(ctx context.Context, orderID string, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT id FROM stages WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		return errors.Wrap(err, "select stage ids")
	}
	existing := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan stage id")
		}
		existing[id] = true
	}
	rows.Close()
	if rows.Err() != nil {
		return errors.Wrap(rows.Err(), "rows")
	}

	if len(orderedIDs) != len(existing) {
		return models.ErrInvalidStageSet
	}
	seen := map[string]bool{}
	for _, id := range orderedIDs {
		if !existing[id] || seen[id] {
			return models.ErrInvalidStageSet
		}
		seen[id] = true
	}

	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx, `UPDATE stages SET sort_order = $2, updated_at = now() WHERE id = $1`, id, int32(i)); err != nil {
			return errors.Wrap(err, "update sort order")
		}
	}

	if err := touchOrderTx(ctx, tx, orderID); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func touchOrderTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID)
	if err != nil {
		return errors.Wrap(err, "touch order")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
