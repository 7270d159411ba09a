package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/querybuilder"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

const productColumns = `id, title, description, image_src, category, latitude, longitude, price, user_id, created_at`

// PostgresRepository implements product storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Count(ctx context.Context, where querybuilder.Clause) (int, error) {
	query := `SELECT COUNT(*) FROM products ` + where.SQL

	var n int
	if err := r.db.QueryRowContext(ctx, query, where.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// List pages through products matching where. where must have been built
// starting at placeholder 1; limit and offset take the placeholders after it.
func (r *PostgresRepository) List(ctx context.Context, where querybuilder.Clause, limit, offset int) ([]rowmap.ProductRow, error) {
	next := where.NextPlaceholder(1)
	query := fmt.Sprintf(`SELECT %s FROM products %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, productColumns, where.SQL, next, next+1)

	args := append(append([]any{}, where.Args...), limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []rowmap.ProductRow{}
	for rows.Next() {
		var p rowmap.ProductRow
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.ImageSrc, &p.Category,
			&p.Latitude, &p.Longitude, &p.Price, &p.UserID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Create inserts p and returns the generated id. Callers validate p first;
// nil numeric fields are stored as NULL and rejected by the schema.
func (r *PostgresRepository) Create(ctx context.Context, p models.NewProduct) (string, error) {
	query := `
		INSERT INTO products (title, description, image_src, category, latitude, longitude, price, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.ImageSrc, p.Category, p.Latitude, p.Longitude, p.Price, p.UserID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*rowmap.ProductRow, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p := &rowmap.ProductRow{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.ImageSrc, &p.Category,
		&p.Latitude, &p.Longitude, &p.Price, &p.UserID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetWithOwner(ctx context.Context, id string) (*rowmap.ProductWithOwnerRow, error) {
	query := `
		SELECT p.id, p.title, p.description, p.image_src, p.category,
		       p.latitude, p.longitude, p.price, p.user_id, p.created_at,
		       u.id, u.name, u.email, u.image, u.user_type
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	p := &rowmap.ProductWithOwnerRow{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.ImageSrc, &p.Category,
		&p.Latitude, &p.Longitude, &p.Price, &p.UserID, &p.CreatedAt,
		&p.OwnerID, &p.OwnerName, &p.OwnerEmail, &p.OwnerImage, &p.OwnerType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
