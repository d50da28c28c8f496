package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProductStore = (*ProductRepo)(nil)

// ProductRepo is the SQLite implementation of the ProductStore port interface.
// The table holds one catalog snapshot at a time; ReplaceAll swaps the whole
// snapshot in a single transaction.
type ProductRepo struct {
	db *DB
}

// NewProductRepo creates a new ProductRepo backed by the given DB.
func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, title, handle, status, vendor, product_type, tags, body_html,
	sku, price, compare_at_price, inventory_quantity, variant_count, image_url,
	created_at, fetched_at`

// ReplaceAll deletes the current snapshot and inserts the given products in a
// single transaction.
func (r *ProductRepo) ReplaceAll(ctx context.Context, products []model.Product) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace products: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	const insert = `INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, p := range products {
		var compareAt any
		if p.CompareAtPrice != nil {
			compareAt = p.CompareAtPrice.String()
		}

		var createdAt any
		if !p.CreatedAt.IsZero() {
			createdAt = p.CreatedAt.UTC().Format(time.RFC3339Nano)
		}

		fetchedAt := p.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now().UTC()
		}

		_, err := tx.ExecContext(ctx, insert,
			p.ID, p.Title, p.Handle, string(p.Status), p.Vendor, p.ProductType,
			p.Tags, p.BodyHTML, p.SKU, p.Price.String(), compareAt,
			p.InventoryQuantity, p.VariantCount, p.ImageURL,
			createdAt, fetchedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace products: %w", err)
	}

	return nil
}

// ListAll returns the snapshot ordered most recent first.
func (r *ProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// GetByID returns one cached product. Returns nil, nil when absent.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	return p, nil
}

// Count returns the number of products in the snapshot.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*model.Product, error) {
	var (
		p            model.Product
		status       string
		price        string
		compareAt    sql.NullString
		createdAtRaw sql.NullString
		fetchedAtRaw string
	)

	err := s.Scan(
		&p.ID, &p.Title, &p.Handle, &status, &p.Vendor, &p.ProductType,
		&p.Tags, &p.BodyHTML, &p.SKU, &price, &compareAt,
		&p.InventoryQuantity, &p.VariantCount, &p.ImageURL,
		&createdAtRaw, &fetchedAtRaw,
	)
	if err != nil {
		return nil, err
	}

	p.Status = model.ProductStatus(status)

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price for product %d: %w", p.ID, err)
	}

	if compareAt.Valid {
		d, err := decimal.NewFromString(compareAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse compare_at_price for product %d: %w", p.ID, err)
		}
		p.CompareAtPrice = &d
	}

	if createdAtRaw.Valid {
		p.CreatedAt, err = parseTime(createdAtRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for product %d: %w", p.ID, err)
		}
	}

	p.FetchedAt, err = parseTime(fetchedAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at for product %d: %w", p.ID, err)
	}

	return &p, nil
}
