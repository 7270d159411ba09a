package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a session. A user_id that references no user surfaces as a
// foreign key violation (see dbx.IsForeignKeyViolation).
func (r *PostgresRepository) Create(ctx context.Context, s models.Session) error {
	query := `
		INSERT INTO sessions (session_token, user_id, expires)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, s.SessionToken, s.UserID, s.Expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the session row for token or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, token string) (*rowmap.SessionRow, error) {
	query := `
		SELECT session_token, user_id, expires
		FROM sessions
		WHERE session_token = $1
	`
	s := &rowmap.SessionRow{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&s.SessionToken, &s.UserID, &s.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetWithUser(ctx context.Context, token string) (*rowmap.SessionRow, *rowmap.UserRow, error) {
	query := `
		SELECT s.session_token, s.user_id, s.expires,
		       u.id, u.name, u.email, u.image, u.user_type, u.favorite_ids, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1
	`
	s := &rowmap.SessionRow{}
	u := &rowmap.UserRow{}
	var favorites sql.NullString

	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&s.SessionToken, &s.UserID, &s.Expires,
		&u.ID, &u.Name, &u.Email, &u.Image, &u.UserType, &favorites, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	if favorites.Valid {
		u.FavoriteIDs = favorites.String
	}
	return s, u, nil
}

// Update changes expiry and/or owner; unset patch fields keep the stored
// value. Returns common.ErrorNotFound for an unknown token.
func (r *PostgresRepository) Update(ctx context.Context, patch models.SessionPatch) error {
	query := `
		UPDATE sessions
		SET expires = COALESCE($2, expires),
		    user_id = COALESCE($3, user_id)
		WHERE session_token = $1
	`
	var expires, userID any
	if v, ok := patch.Expires.Get(); ok {
		expires = v
	}
	if v, ok := patch.UserID.Get(); ok {
		userID = v
	}

	res, err := r.db.ExecContext(ctx, query, patch.SessionToken, expires, userID)
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

// Delete removes a session by token. Unknown tokens are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM sessions
		WHERE session_token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires < $1
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
