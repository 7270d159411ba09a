// Package products declares the repository contract for catalog rows.
package products

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/querybuilder"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

type Repository interface {
	// Count returns the number of products matching where.
	Count(ctx context.Context, where querybuilder.Clause) (int, error)
	// List returns one page of products matching where, newest first.
	List(ctx context.Context, where querybuilder.Clause, limit, offset int) ([]rowmap.ProductRow, error)
	Create(ctx context.Context, p models.NewProduct) (string, error)
	GetByID(ctx context.Context, id string) (*rowmap.ProductRow, error)
	GetWithOwner(ctx context.Context, id string) (*rowmap.ProductWithOwnerRow, error)
	Exists(ctx context.Context, id string) (bool, error)
}
