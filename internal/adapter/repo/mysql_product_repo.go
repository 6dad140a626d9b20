package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var (
		p        domain.Product
		images   []byte
		category sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT p.id, p.name, p.price, p.images, c.name
FROM products p LEFT JOIN categories c ON c.id = p.category_id
WHERE p.id = ?`, id).Scan(&p.ID, &p.Name, &p.Price, &images, &category)
	if err != nil {
		return nil, notFound(err)
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("product %s images: %w", id, err)
		}
	}
	p.Category = category.String

	adj, err := loadAdjustments(ctx, conn(ctx, r.db), []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Adjustments = adj[p.ID]
	return &p, nil
}

// loadAdjustments reads the size, color and material price deltas of the
// given products, keyed by product id. Colors are matched by hex code.
func loadAdjustments(ctx context.Context, q executor, productIDs []string) (map[string][]domain.VariantAdjustment, error) {
	out := make(map[string][]domain.VariantAdjustment, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	in := placeholders(len(productIDs))
	query := `
SELECT ps.product_id, 'size', s.name, ps.price_adjustment
FROM product_sizes ps JOIN sizes s ON s.id = ps.size_id
WHERE ps.product_id IN (` + in + `)
UNION ALL
SELECT pc.product_id, 'color', c.hex_code, pc.price_adjustment
FROM product_colors pc JOIN colors c ON c.id = pc.color_id
WHERE pc.product_id IN (` + in + `)
UNION ALL
SELECT pm.product_id, 'material', m.name, pm.price_adjustment
FROM product_materials pm JOIN materials m ON m.id = pm.material_id
WHERE pm.product_id IN (` + in + `)`

	ids := stringArgs(productIDs)
	args := make([]any, 0, 3*len(ids))
	args = append(args, ids...)
	args = append(args, ids...)
	args = append(args, ids...)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID string
			a         domain.VariantAdjustment
		)
		if err := rows.Scan(&productID, &a.Dimension, &a.Value, &a.Delta); err != nil {
			return nil, err
		}
		out[productID] = append(out[productID], a)
	}
	return out, rows.Err()
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
