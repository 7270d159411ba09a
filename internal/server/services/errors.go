package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/google/uuid"
)

// errAbsent signals a not-found condition from inside a transaction; callers
// turn it into a nil result.
var errAbsent = errors.New("absent")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// isDomainError reports errors that are returned to the caller as they are.
func isDomainError(err error) bool {
	return errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrorNotFound)
}

// storageFault logs err with the operation name and replaces it with an
// opaque common.Failure. Domain errors pass through untouched.
func storageFault(ctx context.Context, log logging.Logger, op string, err error) error {
	if isDomainError(err) {
		return err
	}
	log.Error(ctx, "storage operation failed", "op", op, "error", err)
	return common.Failure(op)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
