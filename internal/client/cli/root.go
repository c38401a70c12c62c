package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	u, ok := a.currentUser()
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", u.Email)
}

// Root prints the banner and runs the REPL on the app's reader.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to profilekeeper (type 'help' for commands)")
	if u, ok := a.currentUser(); ok {
		printlnFn("Signed in as", u.Email)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
