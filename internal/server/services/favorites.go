package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// FavoritesService adds and removes products from a user's favorites. Each
// mutation locks the user row, so concurrent calls for the same user apply
// one after another.
type FavoritesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewFavoritesService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *FavoritesService {
	return &FavoritesService{db: db, repomanager: m, logger: logger.With("module", "favorites")}
}

// AddFavorite puts productID into the user's favorites. The product must
// exist. Adding a present id changes nothing. An unknown user yields nil.
func (s *FavoritesService) AddFavorite(ctx context.Context, userID, productID string) (*models.User, error) {
	return s.mutate(ctx, "favorite add", userID, productID, true)
}

// RemoveFavorite takes productID out of the user's favorites. Removing an
// absent id changes nothing. An unknown user yields nil.
func (s *FavoritesService) RemoveFavorite(ctx context.Context, userID, productID string) (*models.User, error) {
	return s.mutate(ctx, "favorite remove", userID, productID, false)
}

func (s *FavoritesService) mutate(ctx context.Context, op, userID, productID string, add bool) (*models.User, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if productID == "" || !models.IsValidProductID(productID) {
		return nil, invalid("invalid product id %q", productID)
	}
	if !isUUID(userID) {
		return nil, nil
	}

	var row *rowmap.UserRow
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		current, err := users.GetForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errAbsent
			}
			return err
		}

		if add {
			exists, err := s.repomanager.Products(tx).Exists(ctx, productID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: product %s", common.ErrorNotFound, productID)
			}
		}

		decoded := rowmap.DecodeFavorites(current.FavoriteIDs)
		if decoded.Fault != nil {
			s.logger.Warn(ctx, "favorites payload repaired", "user_id", userID, "error", decoded.Fault)
		}

		var next models.FavoriteIDs
		if add {
			next = decoded.Value.Add(productID)
		} else {
			next = decoded.Value.Remove(productID)
		}

		// Rewrite when the set changed or the stored payload needed repair.
		if decoded.Fault != nil || len(next) != len(decoded.Value) {
			if err := users.Update(ctx, models.UserPatch{ID: userID, FavoriteIDs: models.Some(next)}); err != nil {
				return err
			}
			current, err = users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
		}

		row = current
		return nil
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFault(ctx, s.logger, op, err)
	}

	u, fault := rowmap.ToUser(*row)
	if fault != nil {
		s.logger.Warn(ctx, "user payload repaired", "user_id", row.ID, "error", fault)
	}
	return &u, nil
}
