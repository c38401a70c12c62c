// Package services contains the application services of the profilekeeper
// client. This file implements SessionStore, the owner of the user directory
// and of the active session.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/storage"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/cryptox"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/google/uuid"
)

// SessionStore keeps the user directory and the active session in memory and
// mirrors every mutation to storage as whole snapshots under
// common.UsersStorageKey and common.CurrentUserStorageKey.
//
// In-memory state only changes after the snapshot write succeeded, so a
// storage failure leaves the store as it was.
type SessionStore struct {
	mu      sync.Mutex
	kv      storage.Storage
	hasher  cryptox.Hasher
	logger  logging.Logger
	strict  bool
	now     func() time.Time
	newID   func() string
	users   []models.User
	current *models.User
}

type Option func(*SessionStore)

func WithHasher(h cryptox.Hasher) Option {
	return func(s *SessionStore) { s.hasher = h }
}

func WithLogger(l logging.Logger) Option {
	return func(s *SessionStore) { s.logger = l }
}

// WithStrictUpdates makes UpdateProfile and UpdatePassword return
// common.ErrNotFound for an unknown id instead of silently doing nothing.
func WithStrictUpdates(strict bool) Option {
	return func(s *SessionStore) { s.strict = strict }
}

func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *SessionStore) { s.newID = gen }
}

// OpenSessionStore reads the persisted directory and session from kv.
// Absent keys mean a first run and yield an empty directory and no session.
func OpenSessionStore(ctx context.Context, kv storage.Storage, opts ...Option) (*SessionStore, error) {
	s := &SessionStore{
		kv:     kv,
		hasher: cryptox.NewArgon2Hasher(),
		logger: logging.Discard(),
		now:    time.Now,
		newID:  uuid.NewString,
		users:  []models.User{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.warnForeignCredentials(ctx)
	return s, nil
}

func (s *SessionStore) load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, common.UsersStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.users); err != nil {
			return fmt.Errorf("failed to decode directory: %w", err)
		}
		if s.users == nil {
			s.users = []models.User{}
		}
	}

	raw, err = s.kv.Get(ctx, common.CurrentUserStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if len(raw) == 0 {
		s.logger.Debug(ctx, "store loaded", "users", len(s.users))
		return nil
	}

	var sess models.User
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	if i := s.indexByID(sess.ID); i >= 0 {
		sess = s.users[i].WithoutPassword()
	} else {
		s.logger.Warn(ctx, "session user is not in the directory", "user_id", sess.ID)
		sess = sess.WithoutPassword()
	}
	s.current = &sess

	s.logger.Debug(ctx, "store loaded", "users", len(s.users), "user_id", sess.ID)
	return nil
}

// warnForeignCredentials logs once per open when stored credentials are not
// in the hasher's encoding, typically plaintext from an older directory.
func (s *SessionStore) warnForeignCredentials(ctx context.Context) {
	fc, ok := s.hasher.(cryptox.FormatChecker)
	if !ok {
		return
	}
	n := 0
	for _, u := range s.users {
		if !fc.Recognizes(u.Password) {
			n++
		}
	}
	if n > 0 {
		s.logger.Warn(ctx, "stored credentials are not in the configured password scheme; plaintext directories need -p plain",
			"records", n)
	}
}

// validateRegistration checks the fields a new account must have.
func validateRegistration(name, email string, password []byte) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	case strings.TrimSpace(email) == "":
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	case len(password) == 0:
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// Register adds a new user and makes it the active session.
// It fails with common.ErrDuplicateEmail when the email is already taken.
func (s *SessionStore) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByEmail(email) >= 0 {
		s.logger.Warn(ctx, "register rejected: duplicate email")
		return nil, common.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Projects:  []string{},
		CreatedAt: s.now().UTC(),
	}
	users := append(slices.Clone(s.users), user)
	sess := user.WithoutPassword()

	if err := s.persist(ctx, users, &sess); err != nil {
		return nil, err
	}
	s.users = users
	s.current = &sess

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.currentCopy(), nil
}

// Login makes the user with the given email and password the active session.
// On a mismatch it returns common.ErrInvalidCredentials and the session is
// left untouched.
func (s *SessionStore) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	if email == "" || len(password) == 0 {
		return nil, common.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	foreign := false
	fc, checksFormat := s.hasher.(cryptox.FormatChecker)
	for i := range s.users {
		if s.users[i].Email != email {
			continue
		}
		if s.hasher.Verify(s.users[i].Password, password) {
			idx = i
			break
		}
		if checksFormat && !fc.Recognizes(s.users[i].Password) {
			foreign = true
		}
	}
	if idx < 0 {
		if foreign {
			s.logger.Warn(ctx, "login rejected: stored credential is not in the configured password scheme")
		} else {
			s.logger.Warn(ctx, "login rejected: invalid credentials")
		}
		return nil, common.ErrInvalidCredentials
	}

	sess := s.users[idx].WithoutPassword()
	if err := s.persistSession(ctx, &sess); err != nil {
		return nil, err
	}
	s.current = &sess

	s.logger.Info(ctx, "user logged in", "user_id", sess.ID)
	return s.currentCopy(), nil
}

// Logout clears the active session and its persisted copy.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistSession(ctx, nil); err != nil {
		return err
	}
	if s.current != nil {
		s.logger.Info(ctx, "user logged out", "user_id", s.current.ID)
	}
	s.current = nil
	return nil
}

// UpdateProfile merges patch into the user with the given id and, when that
// user is the active session, into the session too. The returned record has
// no password.
//
// An unknown id is a silent no-op returning (nil, nil) unless the store was
// opened with WithStrictUpdates(true), in which case it is common.ErrNotFound.
// Moving to an email owned by another user fails with common.ErrDuplicateEmail.
func (s *SessionStore) UpdateProfile(ctx context.Context, id string, patch models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return nil, s.unknownID(ctx, id, nil)
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if patch.Email != nil && *patch.Email != s.users[idx].Email && s.indexByEmail(*patch.Email) >= 0 {
		s.logger.Warn(ctx, "profile update rejected: duplicate email", "user_id", id)
		return nil, common.ErrDuplicateEmail
	}

	updated := s.users[idx].Clone()
	patch.ApplyTo(&updated)

	if err := s.replace(ctx, idx, updated); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "profile updated", "user_id", id)
	out := updated.WithoutPassword()
	return &out, nil
}

// UpdatePassword replaces the credential of the user with the given id after
// verifying current. A wrong current password is common.ErrInvalidCredentials;
// so is an unknown id, unless strict updates are on (common.ErrNotFound).
func (s *SessionStore) UpdatePassword(ctx context.Context, id string, current, next []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return s.unknownID(ctx, id, common.ErrInvalidCredentials)
	}
	if len(next) == 0 {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if !s.hasher.Verify(s.users[idx].Password, current) {
		s.logger.Warn(ctx, "password change rejected: invalid credentials", "user_id", id)
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	updated := s.users[idx].Clone()
	updated.Password = hash
	if err := s.replace(ctx, idx, updated); err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", id)
	return nil
}

// Reset wipes the whole underlying store, calendars included, and leaves an
// empty directory with no session.
func (s *SessionStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	n := len(s.users)
	s.users = []models.User{}
	s.current = nil

	s.logger.Info(ctx, "store reset", "users", n)
	return nil
}

// Current returns a copy of the active session.
func (s *SessionStore) Current() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.User{}, false
	}
	return s.current.Clone(), true
}

// Users returns a copy of the directory in registration order.
func (s *SessionStore) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out
}

func (s *SessionStore) unknownID(ctx context.Context, id string, lenient error) error {
	if s.strict {
		return common.ErrNotFound
	}
	s.logger.Debug(ctx, "update ignored: unknown user", "user_id", id)
	return lenient
}

// replace swaps users[idx] for updated and persists the directory, plus the
// session when it points at the same user.
func (s *SessionStore) replace(ctx context.Context, idx int, updated models.User) error {
	users := slices.Clone(s.users)
	users[idx] = updated

	var sess *models.User
	if s.current != nil && s.current.ID == updated.ID {
		c := updated.WithoutPassword()
		sess = &c
	}

	if err := s.persist(ctx, users, sess); err != nil {
		return err
	}
	s.users = users
	if sess != nil {
		s.current = sess
	}
	return nil
}

// persist writes the directory and, when sess is non-nil, the session in one
// atomic batch.
func (s *SessionStore) persist(ctx context.Context, users []models.User, sess *models.User) error {
	dir, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode directory: %w", err)
	}
	entries := map[string][]byte{common.UsersStorageKey: dir}

	if sess != nil {
		b, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		entries[common.CurrentUserStorageKey] = b
	}

	if err := s.kv.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist directory: %w", err)
	}
	return nil
}

// persistSession writes sess, or deletes the session key when sess is nil.
func (s *SessionStore) persistSession(ctx context.Context, sess *models.User) error {
	if sess == nil {
		if err := s.kv.Delete(ctx, common.CurrentUserStorageKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, common.CurrentUserStorageKey, b); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *SessionStore) currentCopy() *models.User {
	c := s.current.Clone()
	return &c
}

func (s *SessionStore) indexByID(id string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
}

func (s *SessionStore) indexByEmail(email string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.Email == email })
}
