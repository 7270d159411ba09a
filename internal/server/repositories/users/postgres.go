package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

const userColumns = `id, name, email, image, user_type, favorite_ids, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row, withHash bool) (*rowmap.UserRow, error) {
	u := &rowmap.UserRow{}
	// favorite_ids is TEXT; the raw payload is left for rowmap to decode.
	var favorites sql.NullString
	dest := []any{&u.ID, &u.Name, &u.Email, &u.Image, &u.UserType, &favorites, &u.CreatedAt, &u.UpdatedAt}
	if withHash {
		dest = append(dest, &u.HashedPassword)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if favorites.Valid {
		u.FavoriteIDs = favorites.String
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*rowmap.UserRow, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id), false)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*rowmap.UserRow, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email), false)
}

func (r *PostgresRepository) GetAuthByEmail(ctx context.Context, email string) (*rowmap.UserRow, error) {
	query :=
		`SELECT ` + userColumns + `, hashed_password FROM users
		 WHERE email = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email), true)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*rowmap.UserRow, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id), false)
}

// Create inserts u and returns the id assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, u models.NewUser) (string, error) {
	query :=
		`INSERT INTO users (name, email, image, user_type, hashed_password)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	role := u.Role
	if role == "" {
		role = common.DefaultRole
	}

	var hash sql.NullString
	if u.HashedPassword != "" {
		hash = sql.NullString{String: u.HashedPassword, Valid: true}
	}

	var id string
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.Image, role, hash).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

// Update writes the supplied fields of patch and bumps updated_at. It returns
// common.ErrorNotFound when no row has patch.ID.
func (r *PostgresRepository) Update(ctx context.Context, patch models.UserPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if v, ok := patch.Name.Get(); ok {
		set("name", v)
	}
	if v, ok := patch.Email.Get(); ok {
		set("email", v)
	}
	if v, ok := patch.Image.Get(); ok {
		set("image", v)
	}
	if v, ok := patch.Role.Get(); ok {
		set("user_type", v)
	}
	if v, ok := patch.FavoriteIDs.Get(); ok {
		encoded, err := rowmap.EncodeFavorites(v)
		if err != nil {
			return fmt.Errorf("favorites encode error: %w", err)
		}
		set("favorite_ids", encoded)
	}

	if len(sets) == 0 {
		return fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}

	args = append(args, patch.ID)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = now()
		 WHERE id = $%d
		 `, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// Delete removes the user; sessions and owned rows cascade. Deleting an
// absent id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM users
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
