package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"grocerly/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, category, quantity, price, images, COALESCE(details,'') AS details`

func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM home_page_products
	  WHERE category = ?
	  ORDER BY id
	`, category)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `
	  SELECT `+productCols+`
	  FROM home_page_products
	  WHERE id = ?
	`, id)
	return p, err
}

// Search ranks name prefix matches above name substring matches above category matches.
func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	q = escapeLike(strings.TrimSpace(q))
	contains := "%" + q + "%"
	prefix := q + "%"

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM home_page_products
	  WHERE name LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\'
	  ORDER BY
	    CASE
	      WHEN name LIKE ? ESCAPE '\' THEN 1
	      WHEN name LIKE ? ESCAPE '\' THEN 2
	      ELSE 3
	    END,
	    name ASC
	  LIMIT ?
	`, contains, contains, prefix, contains, limit)
	return out, err
}

// Similar lists the category's products, leaving out excludeID when it is non-zero.
func (r *ProductRepo) Similar(ctx context.Context, category string, excludeID int64) ([]domain.Product, error) {
	where := `category = ?`
	args := []any{category}
	if excludeID != 0 {
		where += ` AND id != ?`
		args = append(args, excludeID)
	}
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM home_page_products
	  WHERE `+where+`
	  ORDER BY id`, args...)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) (int64, error) {
	var details any
	if p.Details != "" {
		details = p.Details
	}
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO home_page_products(name, category, quantity, price, images, details, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.Name, p.Category, p.Quantity, p.Price, p.Images, details)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
