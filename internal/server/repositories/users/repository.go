// Package users declares the repository contract for user rows.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// Repository reads and writes the users table. Lookups that match nothing
// return common.ErrorNotFound.
type Repository interface {
	GetByID(ctx context.Context, id string) (*rowmap.UserRow, error)
	GetByEmail(ctx context.Context, email string) (*rowmap.UserRow, error)
	// GetAuthByEmail also loads the stored password hash.
	GetAuthByEmail(ctx context.Context, email string) (*rowmap.UserRow, error)
	// GetForUpdate reads the row and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*rowmap.UserRow, error)
	Create(ctx context.Context, u models.NewUser) (string, error)
	Update(ctx context.Context, patch models.UserPatch) error
	Delete(ctx context.Context, id string) error
}
