package catalog

import (
	"context"
	"database/sql"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"github.com/buildunia/commerce/internal/domain"
)

// ProductRepository reads the products table. The catalog is owned by the
// admin back-office; this side only reads it.
type ProductRepository struct {
	db  *sql.DB
	sfg singleflight.Group
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, category, difficulty, description, prices, price, image_url
		FROM products
		ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID collapses concurrent lookups for the same product into a single
// query. Hot products are hit by every cart mutation in a session.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := r.sfg.Do(id, func() (any, error) {
		return r.getByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (r *ProductRepository) getByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, category, difficulty, description, prices, price, image_url
		FROM products
		WHERE id = $1
	`, id)

	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		prices   sql.NullString
		imageURL sql.NullString
	)
	err := row.Scan(&product.ID, &product.Title, &product.Category, &product.Difficulty,
		&product.Description, &prices, &product.Price, &imageURL)
	if err != nil {
		return nil, err
	}

	if prices.Valid {
		product.Prices = json.RawMessage(prices.String)
	}
	product.ImageURL = imageURL.String
	return &product, nil
}
