// Package admin implements marketctl, the operator tool for creating users,
// sweeping expired sessions and uploading product images outside the server
// process.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/flagx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
)

const usage = `usage: marketctl <command> [flags] [config flags]

commands:
  useradd [-role Role]   create a user (prompts for name, email and password)
  sweep                  delete sessions expired longer than the grace period
  upload -user ID -file PATH
                         upload a product image and print its imageSrc`

// openDB is a seam for tests.
var openDB = func(ctx context.Context, c *config.Config) (*sql.DB, error) {
	return dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.PoolOptions{MaxOpenConns: 2})
}

// Main runs the command named by args[0]. Connection settings come from cfg.
func Main(ctx context.Context, cfg *config.Config, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	cmd := args[0]
	if cmd != "useradd" && cmd != "sweep" && cmd != "upload" {
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	role := fs.String("role", common.DefaultRole, "role of the new user")
	userID := fs.String("user", "", "owner of the uploaded image")
	file := fs.String("file", "", "image file to upload")
	// Config flags such as -d may follow the command; they were already
	// consumed by config.LoadConfig.
	own := []string{"-role", "--role", "-user", "--user", "-file", "--file"}
	if err := fs.Parse(flagx.FilterArgs(args[1:], own)); err != nil {
		return err
	}

	if cmd == "upload" {
		if *userID == "" || *file == "" {
			return fmt.Errorf("upload needs -user and -file\n%s", usage)
		}
		return UploadImage(ctx, newUploader(cfg), http.DefaultClient, *userID, *file, out)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	hasher := auth.NewBcryptHasher()
	adapter := services.NewAuthAdapter(db, repomanager.NewPostgresRepositoryManager(), hasher, logging.Nop{})

	switch cmd {
	case "useradd":
		reg := services.NewCredentialService(adapter, hasher, cfg, logging.Nop{})
		u, err := UserAdd(ctx, bufio.NewReader(in), out, reg, *role)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created user %s (%s)\n", u.ID, u.Email)
	case "sweep":
		n, err := adapter.PurgeExpiredSessions(ctx, time.Now().Add(-cfg.SessionGracePeriod))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d sessions\n", n)
	}
	return nil
}
