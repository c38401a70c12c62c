package cli

import (
	"context"
	"strings"
)

// Reset deletes every user, the session and all calendars after an explicit
// "yes".
func (a *App) Reset(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "This deletes all local users and events. Type 'yes' to continue", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		printlnFn("Reset cancelled")
		return nil
	}

	if err := a.store.Reset(ctx); err != nil {
		a.report(ctx, "reset", err)
		return err
	}
	printlnFn("All local data deleted")
	return nil
}
