// Package cryptox hashes and verifies user passwords.
//
// Two schemes are provided behind the Hasher interface:
//
//   - Argon2Hasher: salted argon2id, encoded in the PHC string format
//     ($argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>). This is the default.
//   - PlainHasher: stores the password as-is and compares it in constant
//     time. It exists only to read directories written by older versions
//     that kept plaintext credentials.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// Scheme names accepted by NewHasher.
const (
	SchemeArgon2id = "argon2id"
	SchemePlain    = "plain"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Bounds for parameters read back from a stored hash. Memory is in KiB.
const (
	maxArgon2Memory = 1 << 20
	maxArgon2Time   = 64
	maxArgon2KeyLen = 1024
)

// Hasher turns a password into a storable credential and checks candidates
// against it.
type Hasher interface {
	Hash(password []byte) (string, error)
	Verify(stored string, password []byte) bool
}

// FormatChecker is implemented by hashers that can tell their own encoding
// apart from foreign stored values.
type FormatChecker interface {
	Recognizes(stored string) bool
}

// NewHasher returns the hasher for the given scheme name.
func NewHasher(scheme string) (Hasher, error) {
	switch scheme {
	case "", SchemeArgon2id:
		return NewArgon2Hasher(), nil
	case SchemePlain:
		return PlainHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// Argon2Hasher derives keys with argon2id.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (h *Argon2Hasher) Hash(password []byte) (string, error) {
	salt := common.GenerateRandByteArray(h.SaltLen)
	key := argon2.IDKey(password, salt, h.Time, h.Memory, h.Threads, h.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Time, h.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify re-derives the key with the parameters recorded in stored, so
// hashes survive a change of the hasher's defaults.
func (h *Argon2Hasher) Verify(stored string, password []byte) bool {
	p, salt, key, err := decodeArgon2(stored)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// Recognizes reports whether stored is a well-formed argon2id hash. A false
// result for a non-empty value usually means a plaintext credential.
func (h *Argon2Hasher) Recognizes(stored string) bool {
	_, _, _, err := decodeArgon2(stored)
	return err == nil
}

func decodeArgon2(stored string) (*Argon2Hasher, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != SchemeArgon2id {
		return nil, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, ErrMalformedHash
	}

	p := &Argon2Hasher{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return nil, nil, nil, ErrMalformedHash
	}
	// argon2.IDKey panics on t=0 or p=0 and allocates m KiB up front.
	if p.Time < 1 || p.Time > maxArgon2Time || p.Threads < 1 ||
		p.Memory < 8*uint32(p.Threads) || p.Memory > maxArgon2Memory {
		return nil, nil, nil, ErrMalformedHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrMalformedHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLen {
		return nil, nil, nil, ErrMalformedHash
	}
	return p, salt, key, nil
}

// PlainHasher keeps passwords verbatim.
type PlainHasher struct{}

func (PlainHasher) Hash(password []byte) (string, error) {
	return string(password), nil
}

func (PlainHasher) Verify(stored string, password []byte) bool {
	return subtle.ConstantTimeCompare([]byte(stored), password) == 1
}
