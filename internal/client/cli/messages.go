package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/profilekeeper/internal/client/services"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// userMessage maps store errors to what the user sees.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return "User with this email already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, common.ErrNotFound):
		return "User not found"
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	case errors.Is(err, services.ErrBackupDisabled):
		return "Backup is not configured (set s3_bucket)"
	default:
		return "Error: " + err.Error()
	}
}

// report prints err for the user and logs unexpected failures.
func (a *App) report(ctx context.Context, op string, err error) {
	printlnFn(userMessage(err))

	switch {
	case errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, services.ErrBackupDisabled):
	default:
		if a.logger != nil {
			a.logger.Error(ctx, op+" failed", "error", err)
		}
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
