package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/querybuilder"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// ProductFilterColumns are the only filter keys the catalog honours, in the
// order their predicates are rendered.
var ProductFilterColumns = []string{"category", "latitude", "longitude"}

// CatalogService lists, creates and looks up products.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, repomanager: m, logger: logger.With("module", "catalog")}
}

// ListProducts returns page (1-based) of products matching filters, newest
// first, together with the total number of matches. Unknown filter keys are
// ignored.
func (s *CatalogService) ListProducts(ctx context.Context, filters map[string]any, page, pageSize int) (*models.ProductPage, error) {
	if page < 1 {
		return nil, invalid("page must be at least 1")
	}
	if pageSize < 1 {
		return nil, invalid("page size must be positive")
	}

	where := querybuilder.Build(filters, ProductFilterColumns)
	if where.Empty() {
		s.logger.Info(ctx, "no filters applied", "page", page, "page_size", pageSize)
	}

	repo := s.repomanager.Products(s.db)

	total, err := repo.Count(ctx, where)
	if err != nil {
		return nil, storageFault(ctx, s.logger, "product count", err)
	}

	rows, err := repo.List(ctx, where, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, storageFault(ctx, s.logger, "product list", err)
	}

	items := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		items = append(items, rowmap.ToProduct(r))
	}

	return &models.ProductPage{Items: items, TotalItems: total}, nil
}

func validateNewProduct(p models.NewProduct) error {
	switch {
	case p.Title == "":
		return invalid("title is required")
	case p.Description == "":
		return invalid("description is required")
	case p.ImageSrc == "":
		return invalid("imageSrc is required")
	case p.Category == "":
		return invalid("category is required")
	case p.Latitude == nil:
		return invalid("latitude is required")
	case p.Longitude == nil:
		return invalid("longitude is required")
	case p.Price == nil:
		return invalid("price is required")
	case *p.Price <= 0:
		return invalid("price must be positive")
	case p.UserID == "":
		return invalid("user id is required")
	case !isUUID(p.UserID):
		return invalid("user %q does not exist", p.UserID)
	}
	return nil
}

// CreateProduct validates p, stores it and returns the stored row.
func (s *CatalogService) CreateProduct(ctx context.Context, p models.NewProduct) (*models.Product, error) {
	if err := validateNewProduct(p); err != nil {
		return nil, err
	}

	var row *rowmap.ProductRow
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)
		id, err := repo.Create(ctx, p)
		if err != nil {
			if dbx.IsForeignKeyViolation(err) {
				return invalid("user %q does not exist", p.UserID)
			}
			return err
		}
		row, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, storageFault(ctx, s.logger, "product create", err)
	}

	product := rowmap.ToProduct(*row)
	return &product, nil
}

// GetProductWithOwner returns the product and its owner's summary, or nil.
func (s *CatalogService) GetProductWithOwner(ctx context.Context, id string) (*models.ProductWithOwner, error) {
	if id == "" {
		return nil, invalid("product id is required")
	}
	if !isUUID(id) {
		return nil, nil
	}

	row, err := s.repomanager.Products(s.db).GetWithOwner(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, storageFault(ctx, s.logger, "product fetch", err)
	}

	p := rowmap.ToProductWithOwner(*row)
	return &p, nil
}
