// Package postgres stores the asset register in PostgreSQL through pgx,
// with the schema managed by golang-migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muurk/assetdesk/internal/assets"
)

// poolIface is the subset of *pgxpool.Pool the store uses. pgxmock's pool
// satisfies it in tests.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Dates travel as YYYY-MM-DD text; NULL reads back as "".
const selectColumns = `id,
	COALESCE(serial_number, ''), name, category, brand,
	COALESCE(to_char(application_date, 'YYYY-MM-DD'), ''),
	COALESCE(specification, ''), COALESCE(asset_code, ''),
	COALESCE(to_char(order_date, 'YYYY-MM-DD'), ''),
	to_char(created_at, 'YYYY-MM-DD'),
	COALESCE(department, ''), COALESCE(location, ''), COALESCE(supplier, ''),
	COALESCE(recipient, ''), COALESCE(recipient_department, ''), COALESCE(remarks, '')`

const (
	listSQL = `SELECT ` + selectColumns + ` FROM assets ORDER BY created_at DESC, id DESC`
	getSQL  = `SELECT ` + selectColumns + ` FROM assets WHERE id = $1`

	insertSQL = `INSERT INTO assets (serial_number, name, category, brand, application_date,
	specification, asset_code, order_date, created_at, department, location, supplier,
	recipient, recipient_department, remarks)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::date, $6, $7, NULLIF($8, '')::date,
	COALESCE(NULLIF($9, '')::timestamptz, now()), $10, $11, $12, $13, $14, $15)
RETURNING id, to_char(created_at, 'YYYY-MM-DD')`

	updateSQL = `UPDATE assets SET serial_number = $1, name = $2, category = $3, brand = $4,
	application_date = NULLIF($5, '')::date, specification = $6, asset_code = $7,
	order_date = NULLIF($8, '')::date,
	created_at = COALESCE(NULLIF($9, '')::timestamptz, created_at),
	department = $10, location = $11, supplier = $12, recipient = $13,
	recipient_department = $14, remarks = $15
WHERE id = $16`

	deleteSQL = `DELETE FROM assets WHERE id = $1`
)

// Store implements assets.Store on PostgreSQL.
type Store struct {
	pool poolIface
}

var _ assets.Store = (*Store)(nil)

// New wraps an existing pool.
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

// Open connects a pool to databaseURL and verifies it with a ping.
func Open(ctx context.Context, databaseURL string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(pool), pool, nil
}

func scanAsset(row pgx.Row) (assets.Asset, error) {
	var a assets.Asset
	err := row.Scan(&a.ID, &a.SerialNumber, &a.Name, &a.Category, &a.Brand,
		&a.ApplicationDate, &a.Specification, &a.AssetCode, &a.OrderDate, &a.CreatedAt,
		&a.Department, &a.Location, &a.Supplier, &a.Recipient, &a.RecipientDepartment, &a.Remarks)
	return a, err
}

func args(a assets.Asset) []any {
	return []any{a.SerialNumber, a.Name, a.Category, a.Brand, a.ApplicationDate,
		a.Specification, a.AssetCode, a.OrderDate, a.CreatedAt, a.Department,
		a.Location, a.Supplier, a.Recipient, a.RecipientDepartment, a.Remarks}
}

// List returns every asset, newest first.
func (s *Store) List(ctx context.Context) ([]assets.Asset, error) {
	rows, err := s.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []assets.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int) (assets.Asset, error) {
	a, err := scanAsset(s.pool.QueryRow(ctx, getSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return assets.Asset{}, assets.NotFound(id)
	}
	if err != nil {
		return assets.Asset{}, fmt.Errorf("get asset %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) Create(ctx context.Context, a assets.Asset) (assets.Asset, error) {
	if err := s.pool.QueryRow(ctx, insertSQL, args(a)...).Scan(&a.ID, &a.CreatedAt); err != nil {
		return assets.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	return a, nil
}

func (s *Store) Update(ctx context.Context, a assets.Asset) error {
	tag, err := s.pool.Exec(ctx, updateSQL, append(args(a), a.ID)...)
	if err != nil {
		return fmt.Errorf("update asset %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return assets.NotFound(a.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return assets.NotFound(id)
	}
	return nil
}
