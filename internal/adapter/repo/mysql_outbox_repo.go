package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/thaijunny/fashion-be/internal/usecase"
)

const (
	outboxPending = "PENDING"
	outboxSent    = "SENT"
)

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

// Insert joins the caller's transaction when ctx carries one, so the message
// commits or rolls back with the order.
func (r *MySQLOutboxRepo) Insert(ctx context.Context, channel string, payload []byte) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, 'PENDING', 0, NOW(3), NOW(3))
`, channel, payload)
	return err
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]usecase.OutboxMessage, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
SELECT id, channel, payload, retry_count, created_at
FROM outbox
WHERE status = ? AND next_attempt_at <= NOW(3)
ORDER BY id
LIMIT ?`, outboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxMessage
	for rows.Next() {
		var m usecase.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Channel, &m.Payload, &m.RetryCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE outbox SET status = ? WHERE id = ?`, outboxSent, id)
	return err
}

func (r *MySQLOutboxRepo) MarkRetry(ctx context.Context, id int64, next time.Time) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE outbox SET retry_count = retry_count + 1, next_attempt_at = ? WHERE id = ?`, next, id)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
