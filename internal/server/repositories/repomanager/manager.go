package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/products"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Products(db dbx.DBTX) products.Repository
	Conversations(db dbx.DBTX) conversations.Repository
}
