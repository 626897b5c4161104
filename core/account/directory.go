package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
)

// EmailChecker is implemented by every account store.
type EmailChecker interface {
	// EmailExists reports whether another account (not excludeID) already uses email.
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
}

// Directory enforces email uniqueness across all account stores.
type Directory struct {
	stores []EmailChecker
}

func NewDirectory(stores ...EmailChecker) *Directory {
	return &Directory{stores: stores}
}

// CheckEmail fails with a ConflictError when email is taken in any store.
func (d *Directory) CheckEmail(ctx context.Context, email, excludeID string) error {
	for _, store := range d.stores {
		exists, err := store.EmailExists(ctx, email, excludeID)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			return core.NewConflictError("email", email)
		}
	}
	return nil
}
