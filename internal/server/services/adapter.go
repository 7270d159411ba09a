// Package services contains server-side business logic. This file implements
// AuthAdapter, the storage contract the authentication framework relies on
// for users and sessions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// AuthStore is the storage contract of the authentication framework.
//
// Lookups return nil (and no error) when nothing matches. Storage faults are
// returned as *common.OpError; bad input as common.ErrorValidation.
type AuthStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u models.NewUser) (*models.User, error)
	UpdateUser(ctx context.Context, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	GetSessionAndUser(ctx context.Context, token string) (*models.Session, *models.User, error)
	CreateSession(ctx context.Context, s models.Session) (*models.Session, error)
	UpdateSession(ctx context.Context, patch models.SessionPatch) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	Authorize(ctx context.Context, email, password string) (*models.User, error)
}

// AuthAdapter implements AuthStore on top of the repositories.
type AuthAdapter struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	logger      logging.Logger
}

var _ AuthStore = (*AuthAdapter)(nil)

func NewAuthAdapter(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, logger logging.Logger) *AuthAdapter {
	return &AuthAdapter{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "auth_adapter"),
	}
}

// toUser maps row and logs a decode fault, if any.
func (a *AuthAdapter) toUser(ctx context.Context, row *rowmap.UserRow) *models.User {
	u, fault := rowmap.ToUser(*row)
	if fault != nil {
		a.logger.Warn(ctx, "user payload repaired", "user_id", row.ID, "error", fault)
	}
	return &u
}

func (a *AuthAdapter) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, invalid("user id is required")
	}
	if !isUUID(id) {
		return nil, nil
	}

	row, err := a.repomanager.Users(a.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, storageFault(ctx, a.logger, "user fetch", err)
	}
	return a.toUser(ctx, row), nil
}

func (a *AuthAdapter) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, invalid("email is required")
	}

	row, err := a.repomanager.Users(a.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, storageFault(ctx, a.logger, "user fetch by email", err)
	}
	return a.toUser(ctx, row), nil
}

// CreateUser inserts u and returns the stored row. Ids are always assigned by
// the database.
func (a *AuthAdapter) CreateUser(ctx context.Context, u models.NewUser) (*models.User, error) {
	if u.Email == "" {
		return nil, invalid("email is required")
	}

	var row *rowmap.UserRow
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repomanager.Users(tx)
		id, err := repo.Create(ctx, u)
		if err != nil {
			if dbx.IsUniqueViolation(err) {
				return invalid("email %q is already registered", u.Email)
			}
			return err
		}
		row, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, storageFault(ctx, a.logger, "user create", err)
	}
	return a.toUser(ctx, row), nil
}

// UpdateUser applies the supplied fields of patch. Favorites must be
// syntactically valid product ids; they are not checked against the catalog.
// An unknown user yields nil.
func (a *AuthAdapter) UpdateUser(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	if patch.ID == "" {
		return nil, invalid("user id is required")
	}
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	if email, ok := patch.Email.Get(); ok && email == "" {
		return nil, invalid("email cannot be empty")
	}
	if fav, ok := patch.FavoriteIDs.Get(); ok {
		if err := fav.Validate(); err != nil {
			return nil, invalid("%v", err)
		}
		patch.FavoriteIDs = models.Some(models.NewFavoriteIDs(fav...))
	}
	if !isUUID(patch.ID) {
		return nil, nil
	}

	var row *rowmap.UserRow
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repomanager.Users(tx)
		if err := repo.Update(ctx, patch); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errAbsent
			}
			if dbx.IsUniqueViolation(err) {
				return invalid("email is already registered")
			}
			return err
		}
		var err error
		row, err = repo.GetByID(ctx, patch.ID)
		return err
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFault(ctx, a.logger, "user update", err)
	}
	return a.toUser(ctx, row), nil
}

// DeleteUser removes the user and, through cascades, their sessions. Deleting
// an unknown user is a no-op.
func (a *AuthAdapter) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return invalid("user id is required")
	}
	if !isUUID(id) {
		return nil
	}
	if err := a.repomanager.Users(a.db).Delete(ctx, id); err != nil {
		return storageFault(ctx, a.logger, "user delete", err)
	}
	return nil
}

// GetSessionAndUser resolves a session token in one joined read. Expiry is
// not checked here.
func (a *AuthAdapter) GetSessionAndUser(ctx context.Context, token string) (*models.Session, *models.User, error) {
	if token == "" {
		return nil, nil, invalid("session token is required")
	}

	s, u, err := a.repomanager.Sessions(a.db).GetWithUser(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, nil
		}
		return nil, nil, storageFault(ctx, a.logger, "session fetch", err)
	}

	session := rowmap.ToSession(*s)
	return &session, a.toUser(ctx, u), nil
}

func (a *AuthAdapter) CreateSession(ctx context.Context, s models.Session) (*models.Session, error) {
	switch {
	case s.SessionToken == "":
		return nil, invalid("session token is required")
	case s.UserID == "":
		return nil, invalid("user id is required")
	case s.Expires.IsZero():
		return nil, invalid("expiry is required")
	case !isUUID(s.UserID):
		return nil, invalid("user %q does not exist", s.UserID)
	}

	var row *rowmap.SessionRow
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repomanager.Sessions(tx)
		if err := repo.Create(ctx, s); err != nil {
			if dbx.IsForeignKeyViolation(err) {
				return invalid("user %q does not exist", s.UserID)
			}
			if dbx.IsUniqueViolation(err) {
				return invalid("session token already exists")
			}
			return err
		}
		var err error
		row, err = repo.Get(ctx, s.SessionToken)
		return err
	})
	if err != nil {
		return nil, storageFault(ctx, a.logger, "session create", err)
	}

	session := rowmap.ToSession(*row)
	return &session, nil
}

// UpdateSession changes expiry and/or owner; unsupplied fields keep their
// stored values. An unknown token yields nil.
func (a *AuthAdapter) UpdateSession(ctx context.Context, patch models.SessionPatch) (*models.Session, error) {
	if patch.SessionToken == "" {
		return nil, invalid("session token is required")
	}
	if userID, ok := patch.UserID.Get(); ok && !isUUID(userID) {
		return nil, invalid("user %q does not exist", userID)
	}

	var row *rowmap.SessionRow
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repomanager.Sessions(tx)
		if err := repo.Update(ctx, patch); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errAbsent
			}
			if dbx.IsForeignKeyViolation(err) {
				return invalid("user does not exist")
			}
			return err
		}
		var err error
		row, err = repo.Get(ctx, patch.SessionToken)
		return err
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFault(ctx, a.logger, "session update", err)
	}

	session := rowmap.ToSession(*row)
	return &session, nil
}

// DeleteSession removes a session. Unknown tokens are a no-op.
func (a *AuthAdapter) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return invalid("session token is required")
	}
	if err := a.repomanager.Sessions(a.db).Delete(ctx, token); err != nil {
		return storageFault(ctx, a.logger, "session delete", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired before cutoff. It is
// housekeeping only; lookups never filter on expiry.
func (a *AuthAdapter) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := a.repomanager.Sessions(a.db).DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, storageFault(ctx, a.logger, "session sweep", err)
	}
	return n, nil
}

// Authorize checks email and password against the stored hash. Every kind of
// mismatch yields the same common.ErrorUnauthorized.
func (a *AuthAdapter) Authorize(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, common.ErrorUnauthorized
	}

	row, err := a.repomanager.Users(a.db).GetAuthByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storageFault(ctx, a.logger, "credential lookup", err)
	}

	au, fault := rowmap.ToAuthUser(*row)
	if fault != nil {
		a.logger.Warn(ctx, "user payload repaired", "user_id", row.ID, "error", fault)
	}
	if au.HashedPassword == "" || !a.hasher.Verify(password, au.HashedPassword) {
		return nil, common.ErrorUnauthorized
	}

	return &au.User, nil
}
