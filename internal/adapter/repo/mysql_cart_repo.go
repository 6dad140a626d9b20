package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type MySQLCartRepo struct{ db *sql.DB }

func NewMySQLCartRepo(db *sql.DB) *MySQLCartRepo { return &MySQLCartRepo{db: db} }

const cartSelect = `
SELECT ci.id, ci.user_id, ci.product_id, ci.project_id, ci.size, ci.color, ci.material,
       ci.quantity, ci.created_at, p.id, p.name, p.price, p.images, c.name
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
LEFT JOIN categories c ON c.id = p.category_id`

type cartRow struct {
	line                  domain.CartLine
	productID, projectID  sql.NullString
	size, color, material sql.NullString
	pID, pName, pCategory sql.NullString
	pPrice                decimal.NullDecimal
	pImages               []byte
}

func (cr *cartRow) dest() []any {
	return []any{
		&cr.line.ID, &cr.line.UserID, &cr.productID, &cr.projectID, &cr.size, &cr.color, &cr.material,
		&cr.line.Quantity, &cr.line.CreatedAt, &cr.pID, &cr.pName, &cr.pPrice, &cr.pImages, &cr.pCategory,
	}
}

func (cr *cartRow) toLine() (domain.CartLine, error) {
	l := cr.line
	l.ProductID = cr.productID.String
	l.ProjectID = cr.projectID.String
	l.Selection = domain.Selection{Size: cr.size.String, Color: cr.color.String, Material: cr.material.String}
	if cr.pID.Valid {
		p := &domain.Product{ID: cr.pID.String, Name: cr.pName.String, Price: cr.pPrice.Decimal, Category: cr.pCategory.String}
		if len(cr.pImages) > 0 {
			if err := json.Unmarshal(cr.pImages, &p.Images); err != nil {
				return l, err
			}
		}
		l.Product = p
	}
	return l, nil
}

// ListByUser returns lines oldest first with their products and adjustments.
func (r *MySQLCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	q := conn(ctx, r.db)
	rows, err := q.QueryContext(ctx, cartSelect+`
WHERE ci.user_id = ?
ORDER BY ci.created_at ASC, ci.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CartLine
	for rows.Next() {
		var cr cartRow
		if err := rows.Scan(cr.dest()...); err != nil {
			return nil, err
		}
		l, err := cr.toLine()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachAdjustments(ctx, q, out)
}

func (r *MySQLCartRepo) attachAdjustments(ctx context.Context, q executor, lines []domain.CartLine) error {
	seen := map[string]bool{}
	var ids []string
	for _, l := range lines {
		if l.Product != nil && !seen[l.Product.ID] {
			seen[l.Product.ID] = true
			ids = append(ids, l.Product.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	adj, err := loadAdjustments(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range lines {
		if p := lines[i].Product; p != nil {
			p.Adjustments = adj[p.ID]
		}
	}
	return nil
}

func (r *MySQLCartRepo) Get(ctx context.Context, userID, lineID string) (*domain.CartLine, error) {
	q := conn(ctx, r.db)
	var cr cartRow
	if err := q.QueryRowContext(ctx, cartSelect+`
WHERE ci.id = ? AND ci.user_id = ?`, lineID, userID).Scan(cr.dest()...); err != nil {
		return nil, notFound(err)
	}
	l, err := cr.toLine()
	if err != nil {
		return nil, err
	}
	lines := []domain.CartLine{l}
	if err := r.attachAdjustments(ctx, q, lines); err != nil {
		return nil, err
	}
	return &lines[0], nil
}

// FindVariant uses null-safe equality so an unchosen dimension only matches
// another unchosen one.
func (r *MySQLCartRepo) FindVariant(ctx context.Context, userID, productID string, sel domain.Selection) (*domain.CartLine, error) {
	var (
		l                                 domain.CartLine
		prod, proj, size, color, material sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id, user_id, product_id, project_id, size, color, material, quantity, created_at
FROM cart_items
WHERE user_id = ? AND product_id = ? AND size <=> ? AND color <=> ? AND material <=> ?
ORDER BY created_at ASC
LIMIT 1`, userID, productID, nullString(sel.Size), nullString(sel.Color), nullString(sel.Material)).
		Scan(&l.ID, &l.UserID, &prod, &proj, &size, &color, &material, &l.Quantity, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.ProductID, l.ProjectID = prod.String, proj.String
	l.Selection = domain.Selection{Size: size.String, Color: color.String, Material: material.String}
	return &l, nil
}

func (r *MySQLCartRepo) Insert(ctx context.Context, l *domain.CartLine) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO cart_items (id, user_id, product_id, project_id, size, color, material, quantity, created_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		l.ID, l.UserID, nullString(l.ProductID), nullString(l.ProjectID),
		nullString(l.Size), nullString(l.Color), nullString(l.Material), l.Quantity, l.CreatedAt)
	return err
}

func (r *MySQLCartRepo) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?`, quantity, lineID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged
		var one int
		if err := conn(ctx, r.db).QueryRowContext(ctx,
			`SELECT 1 FROM cart_items WHERE id = ? AND user_id = ?`, lineID, userID).Scan(&one); err != nil {
			return notFound(err)
		}
	}
	return nil
}

func (r *MySQLCartRepo) Delete(ctx context.Context, userID, lineID string) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
DELETE FROM cart_items WHERE id = ? AND user_id = ?`, lineID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MySQLCartRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ usecase.CartRepo = (*MySQLCartRepo)(nil)
