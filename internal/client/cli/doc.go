// Package cli provides the interactive profilekeeper command-line client.
//
// It wires configuration, the local key-value storage, the session store,
// the calendar and the optional S3 backup into a small REPL.
//
// Commands available without a session: register, login, whoami, reset,
// help, exit. Commands that need a session (dashboard, profile, passwd, events,
// addevent, backup) answer with a login hint instead.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or stdin is closed.
package cli
