package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/thaijunny/fashion-be/internal/entity"
)

// ErrRecordNotFound is returned by repositories when a row does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ErrRecordExists is returned on a unique key conflict.
var ErrRecordExists = errors.New("record already exists")

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx handed to fn take part in it. A non-nil error from fn, a panic or a
// cancelled ctx rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CartRepo interface {
	// ListByUser returns the user's lines oldest first, each with Product
	// (including its variant adjustments) when the product still exists.
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
	Get(ctx context.Context, userID, lineID string) (*domain.CartLine, error)
	// FindVariant returns the line holding the same product and selection, or nil.
	FindVariant(ctx context.Context, userID, productID string, sel domain.Selection) (*domain.CartLine, error)
	Insert(ctx context.Context, l *domain.CartLine) error
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Delete(ctx context.Context, userID, lineID string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type ProductRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	AddItems(ctx context.Context, orderID string, items []domain.LineItem) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatusIf moves id from one status to another and reports whether
	// a row matched both the id and the expected current status.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type OutboxMessage struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
	CreatedAt  time.Time
}

type OutboxRepo interface {
	Insert(ctx context.Context, channel string, payload []byte) error
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, next time.Time) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, error)
}
