package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/config"
	"github.com/dmitrijs2005/profilekeeper/internal/client/services"
	"github.com/dmitrijs2005/profilekeeper/internal/client/storage"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/cryptox"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackup struct {
	enabled bool
	key     string
	err     error
	calls   int
}

func (f *fakeBackup) Enabled() bool { return f.enabled }
func (f *fakeBackup) Upload(context.Context) (string, error) {
	f.calls++
	return f.key, f.err
}

// stubPasswords makes getPassword return pws in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(string, io.Writer) ([]byte, error) {
		if i >= len(pws) {
			return nil, io.EOF
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}

type testEnv struct {
	app    *App
	store  *services.SessionStore
	kv     *storage.MemoryStorage
	backup *fakeBackup
	out    *[]string
}

func newTestEnv(t *testing.T, lines ...string) *testEnv {
	t.Helper()
	ctx := context.Background()

	kv := storage.NewMemoryStorage()
	store, err := services.OpenSessionStore(ctx, kv, services.WithHasher(cryptox.PlainHasher{}))
	require.NoError(t, err)

	fb := &fakeBackup{}
	env := &testEnv{
		store:  store,
		kv:     kv,
		backup: fb,
		out:    capturePrintln(t),
	}
	env.app = &App{
		store:    store,
		calendar: services.NewCalendarService(kv, nil),
		backup:   fb,
		closer:   kv,
		logger:   logging.Discard(),
		out:      io.Discard,
	}
	env.feed(lines...)
	return env
}

func (e *testEnv) feed(lines ...string) {
	e.app.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func (e *testEnv) printed(s string) bool {
	for _, l := range *e.out {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

func (e *testEnv) register(t *testing.T, name, email, pw string) {
	t.Helper()
	e.feed(name, email)
	stubPasswords(t, pw, pw)
	require.NoError(t, e.app.Register(context.Background()))
}

func TestRegister_SignsInAndShowsDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	u, ok := env.store.Current()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, env.printed("Welcome, Ada!"))
	assert.True(t, env.printed("Events:     0"))
	assert.Equal(t, "(ada@example.com)", env.app.getStatus())
}

func TestRegister_PasswordMismatchNeverReachesStore(t *testing.T) {
	env := newTestEnv(t, "Ada", "ada@example.com")
	stubPasswords(t, "p1", "p2")

	err := env.app.Register(context.Background())
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.True(t, env.printed("Passwords do not match"))
	assert.Empty(t, env.store.Users())
	assert.False(t, env.app.isLoggedIn())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	env.feed("Other", "ada@example.com")
	stubPasswords(t, "p2", "p2")
	err := env.app.Register(context.Background())

	require.ErrorIs(t, err, common.ErrDuplicateEmail)
	assert.True(t, env.printed("User with this email already exists"))
	assert.Len(t, env.store.Users(), 1)
}

func TestLoginLogoutFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "p1")

	require.NoError(t, env.app.Logout(ctx))
	assert.False(t, env.app.isLoggedIn())
	assert.Equal(t, "", env.app.getStatus())

	env.feed("a@x.com")
	stubPasswords(t, "wrong")
	err := env.app.Login(ctx)
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.True(t, env.printed("Invalid email or password"))
	assert.False(t, env.app.isLoggedIn())

	env.feed("a@x.com")
	stubPasswords(t, "p1")
	require.NoError(t, env.app.Login(ctx))
	assert.True(t, env.printed("Logged in as a@x.com"))
	assert.True(t, env.app.isLoggedIn())
}

func TestWhoAmI(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.app.WhoAmI(ctx))
	assert.True(t, env.printed("Not logged in"))

	env.register(t, "Ada", "ada@example.com", "p1")
	require.NoError(t, env.app.WhoAmI(ctx))
	assert.True(t, env.printed("Ada <ada@example.com>"))
}

func TestProfile_UpdatesDirectoryAndSession(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	// name, email, github, education, about, avatar, projects
	env.feed("Ada L.", "", "adal", "", "Mathematician", "", "engine, notes")
	require.NoError(t, env.app.Profile(context.Background()))
	assert.True(t, env.printed("Profile updated"))

	u, ok := env.store.Current()
	require.True(t, ok)
	assert.Equal(t, "Ada L.", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "adal", u.GitHub)
	assert.Equal(t, "Mathematician", u.About)
	assert.Equal(t, []string{"engine", "notes"}, u.Projects)

	users := env.store.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "Ada L.", users[0].Name)
	assert.Equal(t, []string{"engine", "notes"}, users[0].Projects)
}

func TestProfile_ClearValueAndNothingToUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	env.feed("", "", "adal", "", "", "", "")
	require.NoError(t, env.app.Profile(ctx))

	env.feed("", "", "-", "", "", "", "")
	require.NoError(t, env.app.Profile(ctx))
	u, _ := env.store.Current()
	assert.Empty(t, u.GitHub)

	env.feed("", "", "", "", "", "", "")
	require.NoError(t, env.app.Profile(ctx))
	assert.True(t, env.printed("Nothing to update"))
}

func TestProfile_EmailTakenByAnotherUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "Bob", "bob@example.com", "p1")
	require.NoError(t, env.app.Logout(ctx))
	env.register(t, "Ada", "ada@example.com", "p1")

	env.feed("", "bob@example.com", "", "", "", "", "")
	err := env.app.Profile(ctx)
	require.ErrorIs(t, err, common.ErrDuplicateEmail)

	u, _ := env.store.Current()
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestPasswd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "p1")

	stubPasswords(t, "nope", "p2", "p2")
	require.ErrorIs(t, env.app.Passwd(ctx), common.ErrInvalidCredentials)

	stubPasswords(t, "p1", "p2", "p3")
	require.ErrorIs(t, env.app.Passwd(ctx), errPasswordMismatch)

	stubPasswords(t, "p1", "p2", "p2")
	require.NoError(t, env.app.Passwd(ctx))
	assert.True(t, env.printed("Password updated"))

	require.NoError(t, env.app.Logout(ctx))
	_, err := env.store.Login(ctx, "a@x.com", []byte("p1"))
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = env.store.Login(ctx, "a@x.com", []byte("p2"))
	require.NoError(t, err)
}

func TestAddEventAndEvents(t *testing.T) {
	ctx := context.Background()
	origNow := nowFn
	nowFn = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFn = origNow })

	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "p1")

	env.feed("", "Standup", "daily")
	require.NoError(t, env.app.AddEvent(ctx))
	assert.True(t, env.printed("Event added on 2025-03-14"))

	env.feed("2025-03-20", "Review", "")
	require.NoError(t, env.app.AddEvent(ctx))

	env.feed("14-03-2025", "Bad", "")
	require.ErrorIs(t, env.app.AddEvent(ctx), common.ErrValidation)

	env.feed("")
	require.NoError(t, env.app.Events(ctx))
	assert.True(t, env.printed("2025-03-14  1 event(s)"))
	assert.True(t, env.printed("2025-03-20  1 event(s)"))

	env.feed("2025-03-14")
	require.NoError(t, env.app.Events(ctx))
	assert.True(t, env.printed("1. Standup - daily"))

	env.feed("2025-01-01")
	require.NoError(t, env.app.Events(ctx))
	assert.True(t, env.printed("No events on 2025-01-01"))

	require.NoError(t, env.app.Dashboard(ctx))
	assert.True(t, env.printed("Events:     2"))
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.app.Backup(ctx))
	assert.True(t, env.printed("Backup is not configured"))
	assert.Equal(t, 0, env.backup.calls)

	env.backup.enabled = true
	env.backup.key = "profilekeeper/2025/03/14/x.json"
	require.NoError(t, env.app.Backup(ctx))
	assert.True(t, env.printed("Backup stored as profilekeeper/2025/03/14/x.json"))

	env.backup.err = errors.New("bucket gone")
	require.Error(t, env.app.Backup(ctx))
	assert.True(t, env.printed("Error: bucket gone"))
}

func TestHandlersWithoutSessionPrintHint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.app.Dashboard(ctx))
	require.NoError(t, env.app.Profile(ctx))
	require.NoError(t, env.app.Passwd(ctx))
	require.NoError(t, env.app.Events(ctx))
	require.NoError(t, env.app.AddEvent(ctx))

	n := 0
	for _, l := range *env.out {
		if l == loginHint {
			n++
		}
	}
	assert.Equal(t, 5, n)
}

func TestRoot_REPLSession(t *testing.T) {
	env := newTestEnv(t, "register", "Ada", "ada@example.com", "whoami", "logout", "exit")
	stubPasswords(t, "p1", "p1")

	env.app.Root(context.Background())

	assert.True(t, env.printed("Welcome, Ada!"))
	assert.True(t, env.printed("Ada <ada@example.com>"))
	assert.True(t, env.printed("Logged out"))
	assert.False(t, env.app.isLoggedIn())
	assert.Len(t, env.store.Users(), 1)
}

func TestNewApp_SQLiteSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	stubPasswords(t, "p1", "p1")
	capturePrintln(t)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.PasswordScheme = "plain"
	cfg.LogLevel = "error"

	app, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	app.out = io.Discard
	app.reader = bufio.NewReader(strings.NewReader("register\nAda\nada@example.com\nexit\n"))
	app.Run(ctx)

	again, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.closer.Close() })

	u, ok := again.currentUser()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, again.backup.Enabled())
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = t.TempDir()
	cfg.StorageBackend = "etcd"
	_, err := NewApp(ctx, cfg)
	require.Error(t, err)

	cfg.StorageBackend = storage.BackendMemory
	cfg.PasswordScheme = "rot13"
	_, err = NewApp(ctx, cfg)
	require.Error(t, err)
}

func TestRegister_RequiresNameAndEmail(t *testing.T) {
	tests := []struct {
		name, userName, email, want string
	}{
		{"blank name", " ", "ada@example.com", "name is required"},
		{"blank email", "Ada", "", "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.userName, tt.email)
			stubPasswords(t, "p1", "p1")

			err := env.app.Register(context.Background())
			require.ErrorIs(t, err, common.ErrValidation)
			assert.True(t, env.printed(tt.want))
			assert.Empty(t, env.store.Users())
			assert.False(t, env.app.isLoggedIn())
		})
	}
}

func TestRegister_RequiresPassword(t *testing.T) {
	env := newTestEnv(t, "Ada", "ada@example.com")
	stubPasswords(t, "", "")

	err := env.app.Register(context.Background())
	require.ErrorIs(t, err, common.ErrValidation)
	assert.True(t, env.printed("password is required"))
	assert.Empty(t, env.store.Users())
}

func TestLogin_EmptyEmailAndPasswordRejected(t *testing.T) {
	env := newTestEnv(t, "")
	stubPasswords(t, "")

	err := env.app.Login(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, env.app.isLoggedIn())
}

func TestProfile_RequiredFieldsCannotBeCleared(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	// name, email, github, education, about, avatar, projects
	env.feed("-", "-", "adal", "", "", "", "")
	require.NoError(t, env.app.Profile(context.Background()))
	assert.True(t, env.printed("Email is required and was kept"))
	assert.True(t, env.printed("Name is required and was kept"))

	u, _ := env.store.Current()
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "adal", u.GitHub)
	assert.Equal(t, "ada@example.com", env.store.Users()[0].Email)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@example.com", "p1")

	env.feed("no")
	require.NoError(t, env.app.Reset(ctx))
	assert.True(t, env.printed("Reset cancelled"))
	assert.Len(t, env.store.Users(), 1)

	env.feed("yes")
	require.NoError(t, env.app.Reset(ctx))
	assert.True(t, env.printed("All local data deleted"))
	assert.Empty(t, env.store.Users())
	assert.False(t, env.app.isLoggedIn())
	assert.Empty(t, env.kv.Snapshot())
}
