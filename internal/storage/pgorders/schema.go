package pgorders

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL,
  access_code TEXT NULL,
  client_name TEXT NULL,
  client_phone TEXT NULL,
  vehicle_summary TEXT NOT NULL,
  vehicle_vin TEXT NULL,
  vehicle_lot TEXT NULL,
  eta_text TEXT NULL,
  public_status TEXT NULL,
  last_update_note TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (tracking_number)
)`,
		`
CREATE TABLE IF NOT EXISTS stages (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  status TEXT NOT NULL,
  date_text TEXT NOT NULL DEFAULT '-',
  comment TEXT NOT NULL DEFAULT '',
  sort_order INT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_order_id_sort_order ON stages(order_id, sort_order)`,
		`
CREATE TABLE IF NOT EXISTS route_points (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  lat DOUBLE PRECISION NOT NULL,
  lng DOUBLE PRECISION NOT NULL,
  type TEXT NOT NULL,
  sort_order INT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_route_points_order_id_sort_order ON route_points(order_id, sort_order)`,
		`
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  author TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_order_id_created_at ON messages(order_id, created_at)`,
		`
CREATE TABLE IF NOT EXISTS attachments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  stage_id TEXT NULL REFERENCES stages(id) ON DELETE SET NULL,
  filename TEXT NOT NULL,
  original_name TEXT NOT NULL,
  mime TEXT NOT NULL,
  size BIGINT NOT NULL,
  type TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  UNIQUE (filename)
)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_order_id_created_at ON attachments(order_id, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
