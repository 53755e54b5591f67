package pgorders

import (
	"context"
	"time"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Сообщения append-only: ни правок, ни удалений.
func (s *Storage) CreateMessage(ctx context.Context, orderID string, author models.MessageAuthor, text string) (*models.Message, error) {
	m := &models.Message{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO messages (id, order_id, author, text, created_at)
VALUES ($1,$2,$3,$4,$5)
`, m.ID, m.OrderID, m.Author, m.Text, m.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	_, err = s.db.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "touch order")
	}
	return m, nil
}

func (s *Storage) ListMessages(ctx context.Context, orderID string) ([]*models.Message, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, author, text, created_at
FROM messages WHERE order_id = $1 ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select messages")
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.OrderID, &m.Author, &m.Text, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		out = append(out, &m)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
