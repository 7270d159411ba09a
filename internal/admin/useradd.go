package admin

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type Registrar interface {
	Register(ctx context.Context, acc services.NewAccount) (*models.User, error)
}

// UserAdd prompts for name, email and password (twice) and creates the user
// with the given role.
func UserAdd(ctx context.Context, reader *bufio.Reader, w io.Writer, reg Registrar, role string) (*models.User, error) {
	name, err := GetSimpleText(reader, "Name", w)
	if err != nil {
		return nil, err
	}
	email, err := GetSimpleText(reader, "Email", w)
	if err != nil {
		return nil, err
	}

	password, err := GetPassword("Password", w)
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword("Repeat password", w)
	if err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	return reg.Register(ctx, services.NewAccount{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
}
