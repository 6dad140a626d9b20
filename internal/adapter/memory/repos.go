package memory

import (
	"context"
	"sort"
	"time"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

// Typed views over the same Store, one per port.
type (
	CartRepo    struct{ s *Store }
	ProductRepo struct{ s *Store }
	OrderRepo   struct{ s *Store }
	UserRepo    struct{ s *Store }
	OutboxRepo  struct{ s *Store }
)

func (s *Store) Carts() *CartRepo       { return &CartRepo{s} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }
func (s *Store) Orders() *OrderRepo     { return &OrderRepo{s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s} }
func (s *Store) Outbox() *OutboxRepo    { return &OutboxRepo{s} }

// --- cart ---

func (r *CartRepo) resolve(l domain.CartLine) domain.CartLine {
	if l.ProductID == "" {
		return l
	}
	if p, ok := r.s.data.products[l.ProductID]; ok {
		p.Adjustments = append([]domain.VariantAdjustment(nil), p.Adjustments...)
		l.Product = &p
	}
	return l
}

func (r *CartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.ListByUser"); err != nil {
		return nil, err
	}
	var out []domain.CartLine
	for _, l := range r.s.data.cart {
		if l.UserID == userID {
			out = append(out, r.resolve(l))
		}
	}
	sortLines(out)
	return out, nil
}

func (r *CartRepo) Get(ctx context.Context, userID, lineID string) (*domain.CartLine, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.data.cart {
		if l.ID == lineID && l.UserID == userID {
			l = r.resolve(l)
			return &l, nil
		}
	}
	return nil, usecase.ErrRecordNotFound
}

func (r *CartRepo) FindVariant(ctx context.Context, userID, productID string, sel domain.Selection) (*domain.CartLine, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.data.cart {
		if l.UserID == userID && l.SameVariant(productID, sel) {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *CartRepo) Insert(ctx context.Context, l *domain.CartLine) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.Insert"); err != nil {
		return err
	}
	cp := *l
	cp.Product = nil
	r.s.data.cart = append(r.s.data.cart, cp)
	return nil
}

func (r *CartRepo) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.data.cart {
		if l.ID == lineID && l.UserID == userID {
			r.s.data.cart[i].Quantity = quantity
			return nil
		}
	}
	return usecase.ErrRecordNotFound
}

func (r *CartRepo) Delete(ctx context.Context, userID, lineID string) (bool, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.data.cart {
		if l.ID == lineID && l.UserID == userID {
			r.s.data.cart = append(r.s.data.cart[:i:i], r.s.data.cart[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *CartRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.DeleteByUser"); err != nil {
		return 0, err
	}
	kept := r.s.data.cart[:0:0]
	var n int64
	for _, l := range r.s.data.cart {
		if l.UserID == userID {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.s.data.cart = kept
	return n, nil
}

// --- products ---

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, usecase.ErrRecordNotFound
	}
	return &p, nil
}

// --- orders ---

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Create"); err != nil {
		return err
	}
	h := *o
	h.Items = nil
	r.s.data.orders[o.ID] = h
	r.s.data.orderSeq = append(r.s.data.orderSeq, o.ID)
	return nil
}

func (r *OrderRepo) AddItems(ctx context.Context, orderID string, items []domain.LineItem) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.AddItems"); err != nil {
		return err
	}
	if _, ok := r.s.data.orders[orderID]; !ok {
		return usecase.ErrRecordNotFound
	}
	r.s.data.items[orderID] = append(r.s.data.items[orderID], items...)
	return nil
}

func (r *OrderRepo) full(id string) domain.Order {
	o := r.s.data.orders[id]
	o.Items = append([]domain.LineItem(nil), r.s.data.items[id]...)
	return o
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.orders[id]; !ok {
		return nil, usecase.ErrRecordNotFound
	}
	o := r.full(id)
	return &o, nil
}

func (r *OrderRepo) list(keep func(domain.Order) bool) []domain.Order {
	out := []domain.Order{}
	for i := len(r.s.data.orderSeq) - 1; i >= 0; i-- {
		o := r.full(r.s.data.orderSeq[i])
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(domain.Order) bool { return true }), nil
}

func (r *OrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.s.data.orders[id] = o
	return true, nil
}

// --- users ---

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return usecase.ErrRecordExists
		}
	}
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, usecase.ErrRecordNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, usecase.ErrRecordNotFound
}

// --- outbox ---

func (r *OutboxRepo) Insert(ctx context.Context, channel string, payload []byte) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.Insert"); err != nil {
		return err
	}
	r.s.data.nextOutbox++
	r.s.data.outbox = append(r.s.data.outbox, outboxRow{msg: usecase.OutboxMessage{
		ID:        r.s.data.nextOutbox,
		Channel:   channel,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now().UTC(),
	}})
	return nil
}

func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]usecase.OutboxMessage, error) {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var out []usecase.OutboxMessage
	for _, row := range r.s.data.outbox {
		if len(out) == limit {
			break
		}
		if !row.sent && !row.next.After(now) {
			out = append(out, row.msg)
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id int64) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.data.outbox {
		if r.s.data.outbox[i].msg.ID == id {
			r.s.data.outbox[i].sent = true
			return nil
		}
	}
	return usecase.ErrRecordNotFound
}

func (r *OutboxRepo) MarkRetry(ctx context.Context, id int64, next time.Time) error {
	defer r.s.guard(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.data.outbox {
		if r.s.data.outbox[i].msg.ID == id {
			r.s.data.outbox[i].msg.RetryCount++
			r.s.data.outbox[i].next = next
			return nil
		}
	}
	return usecase.ErrRecordNotFound
}

var (
	_ usecase.TxManager   = (*Store)(nil)
	_ usecase.CartRepo    = (*CartRepo)(nil)
	_ usecase.ProductRepo = (*ProductRepo)(nil)
	_ usecase.OrderRepo   = (*OrderRepo)(nil)
	_ usecase.UserRepo    = (*UserRepo)(nil)
	_ usecase.OutboxRepo  = (*OutboxRepo)(nil)
)
