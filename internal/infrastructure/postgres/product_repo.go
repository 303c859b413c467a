package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	const sql = `
		INSERT INTO products (id, sku, name, balance, active, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`

	_, err := executorFrom(ctx, r.pool).Exec(ctx, sql,
		p.ID, p.SKU, p.Name, p.Balance, p.Active, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	const sql = `
		SELECT id, sku, name, balance, active, created_at, version
		FROM products
		WHERE id = $1
	`

	var p product.Product
	err := executorFrom(ctx, r.pool).QueryRow(ctx, sql, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Balance, &p.Active, &p.CreatedAt, &p.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	return &p, nil
}

func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, sql, sku).Scan(&exists); err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}

	return exists, nil
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]*product.Product, error) {
	const sql = `
		SELECT id, sku, name, balance, active, created_at, version
		FROM products
		WHERE active
		ORDER BY sku ASC
	`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p := &product.Product{}
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Balance, &p.Active, &p.CreatedAt, &p.Version); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, nil
}

// UpdateBalance persists an in-memory debit using a compare-and-swap on the
// version column. Zero rows affected means another writer got there first and
// the caller must treat the whole attempt as a concurrency conflict.
func (r *ProductRepository) UpdateBalance(ctx context.Context, p *product.Product) error {
	const sql = `
		UPDATE products
		SET balance = $2, version = version + 1
		WHERE id = $1 AND version = $3
	`

	tag, err := executorFrom(ctx, r.pool).Exec(ctx, sql, p.ID, p.Balance, p.Version)
	if err != nil {
		return fmt.Errorf("update product balance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return product.ErrVersionConflict
	}

	p.Version++
	return nil
}
