package cli

import "context"

// Backup uploads a snapshot of the local store to the configured bucket.
func (a *App) Backup(ctx context.Context) error {
	if !a.backup.Enabled() {
		printlnFn("Backup is not configured (set s3_bucket)")
		return nil
	}
	key, err := a.backup.Upload(ctx)
	if err != nil {
		a.report(ctx, "backup", err)
		return err
	}
	printlnFn("Backup stored as", key)
	return nil
}
