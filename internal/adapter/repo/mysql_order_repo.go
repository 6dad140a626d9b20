package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderSelect = `
SELECT id, user_id, total_amount, status, shipping_address, full_name, phone_number, payment_method, created_at
FROM orders`

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO orders (id,user_id,total_amount,status,shipping_address,full_name,phone_number,payment_method,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
`, o.ID, o.UserID, o.TotalAmount, string(o.Status), nullString(o.ShippingAddress), nullString(o.FullName),
		nullString(o.PhoneNumber), string(o.PaymentMethod), o.CreatedAt, o.CreatedAt)
	return err
}

// AddItems writes all items in one multi-row insert. position keeps the
// slice order so reads return items in cart order.
func (r *MySQLOrderRepo) AddItems(ctx context.Context, orderID string, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (id,order_id,project_id,product_id,size,color,material,quantity,unit_price,position) VALUES `)
	args := make([]any, 0, len(items)*10)
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?)")
		args = append(args, it.ID, orderID, nullString(it.ProjectID), nullString(it.ProductID),
			nullString(it.Size), nullString(it.Color), nullString(it.Material), it.Quantity, it.UnitPrice, i)
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := conn(ctx, r.db)
	o, err := scanOrder(q.QueryRowContext(ctx, orderSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	orders := []domain.Order{*o}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, orderSelect+` WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (r *MySQLOrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, orderSelect+` ORDER BY created_at DESC, id DESC`)
}

func (r *MySQLOrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	q := conn(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachItems(ctx, q, out)
}

// itemsBatchSize bounds the IN list of one item query.
var itemsBatchSize = 500

func (r *MySQLOrderRepo) attachItems(ctx context.Context, q executor, orders []domain.Order) error {
	idx := make(map[string]int, len(orders))
	ids := make([]string, len(orders))
	for i, o := range orders {
		idx[o.ID] = i
		ids[i] = o.ID
	}
	for start := 0; start < len(ids); start += itemsBatchSize {
		end := min(start+itemsBatchSize, len(ids))
		if err := loadItems(ctx, q, ids[start:end], idx, orders); err != nil {
			return err
		}
	}
	return nil
}

func loadItems(ctx context.Context, q executor, ids []string, idx map[string]int, orders []domain.Order) error {
	rows, err := q.QueryContext(ctx, `
SELECT id, order_id, project_id, product_id, size, color, material, quantity, unit_price
FROM order_items WHERE order_id IN (`+placeholders(len(ids))+`) ORDER BY order_id, position`, stringArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it                                domain.LineItem
			proj, prod, size, color, material sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &proj, &prod, &size, &color, &material, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		it.ProjectID, it.ProductID = proj.String, prod.String
		it.Selection = domain.Selection{Size: size.String, Color: color.String, Material: material.String}
		if i, ok := idx[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		status, payment      string
		address, name, phone sql.NullString
	)
	if err := s.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &address, &name, &phone, &payment, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	o.PaymentMethod = domain.PaymentMethod(payment)
	o.ShippingAddress, o.FullName, o.PhoneNumber = address.String, name.String, phone.String
	return &o, nil
}

// UpdateStatusIf is a compare-and-set on the status column.
func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW(3)
        WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
