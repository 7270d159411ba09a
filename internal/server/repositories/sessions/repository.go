// Package sessions declares the repository contract for the authentication
// framework's server-side sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// Repository stores sessions keyed by token.
type Repository interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, token string) (*rowmap.SessionRow, error)
	// GetWithUser reads the session and its user in one joined query.
	GetWithUser(ctx context.Context, token string) (*rowmap.SessionRow, *rowmap.UserRow, error)
	Update(ctx context.Context, patch models.SessionPatch) error
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes sessions that expired before the given instant
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
