// Package memory is an in-process implementation of every persistence port.
// It backs tests and the storage.driver=memory local mode. Transactions are
// serialized against every other repository call and roll back by restoring
// a snapshot, so a snapshot never covers writes made outside the transaction.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type outboxRow struct {
	msg  usecase.OutboxMessage
	sent bool
	next time.Time
}

type state struct {
	users      map[string]domain.User
	products   map[string]domain.Product
	cart       []domain.CartLine
	orders     map[string]domain.Order
	orderSeq   []string
	items      map[string][]domain.LineItem
	outbox     []outboxRow
	nextOutbox int64
}

func newState() state {
	return state{
		users:    map[string]domain.User{},
		products: map[string]domain.Product{},
		orders:   map[string]domain.Order{},
		items:    map[string][]domain.LineItem{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.cart = append([]domain.CartLine(nil), s.cart...)
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.orderSeq = append([]string(nil), s.orderSeq...)
	for k, v := range s.items {
		c.items[k] = append([]domain.LineItem(nil), v...)
	}
	c.outbox = append([]outboxRow(nil), s.outbox...)
	c.nextOutbox = s.nextOutbox
	return c
}

type txKey struct{}

type Store struct {
	// txMu is held for the whole of a transaction and for every repository
	// call made outside one.
	txMu sync.Mutex
	mu   sync.Mutex
	data state

	failures map[string]error

	locks    map[string]struct{}
	recalls  map[string]string
	statuses map[string]string
}

func New() *Store {
	return &Store{
		data:     newState(),
		failures: map[string]error{},
		locks:    map[string]struct{}{},
		recalls:  map[string]string{},
		statuses: map[string]string{},
	}
}

// FailOn makes every later call of op return err until cleared with a nil err.
// Ops are named "<repo>.<Method>", e.g. "orders.AddItems".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// fail must be called with mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// guard serializes a repository call made outside a transaction against open
// transactions. Calls inside one already hold txMu.
func (s *Store) guard(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// WithinTx joins the outer transaction when ctx already carries one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, s)

	s.mu.Lock()
	snap := s.data.clone()
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.data = snap
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		restore()
		return err
	}
	if err := ctx.Err(); err != nil {
		restore()
		return err
	}
	return nil
}

// --- seeding and inspection ---

func (s *Store) PutProduct(p domain.Product) {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

func (s *Store) DeleteProduct(id string) {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.products, id)
}

func (s *Store) PutUser(u domain.User) {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = u
}

func (s *Store) PutCartLine(l domain.CartLine) {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	l.Product = nil
	s.data.cart = append(s.data.cart, l)
}

func (s *Store) OrderCount() int {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *Store) ItemCount() int {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.data.items {
		n += len(it)
	}
	return n
}

func (s *Store) CartLen(userID string) int {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.data.cart {
		if l.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) OutboxLen() int {
	defer s.guard(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.outbox)
}

// sortLines orders by creation time, keeping insertion order for ties.
func sortLines(lines []domain.CartLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})
}
