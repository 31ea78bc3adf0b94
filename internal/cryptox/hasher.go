// Package cryptox turns submitted passwords into the salted digests stored
// on accounts.
//
// A digest is always hex-encoded and derived from the password and the
// account's hex salt; which function derives it is recorded next to the
// digest (Account.PasswordAlgo) so that every account keeps verifying with
// the hasher it was registered with.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes in a salt (32 hex characters).
const SaltSize = 16

const (
	AlgoSHA256   = "sha256"
	AlgoArgon2id = "argon2id"
)

// Hasher derives a digest from a password and a salt.
type Hasher interface {
	// Name is stored with the account and selects the hasher at login.
	Name() string
	Hash(password, salt string) string
}

// NewSalt returns SaltSize bytes from crypto/rand, hex-encoded.
func NewSalt() (string, error) {
	return common.MakeRandHexString(SaltSize)
}

// SHA256Hasher is a single SHA-256 pass over password+salt. It has no work
// factor; Argon2idHasher is the slow alternative.
type SHA256Hasher struct{}

func (SHA256Hasher) Name() string { return AlgoSHA256 }

func (SHA256Hasher) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// Argon2idHasher runs argon2id with a configurable work factor.
type Argon2idHasher struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2id uses the OWASP baseline parameters.
func DefaultArgon2id() Argon2idHasher {
	return Argon2idHasher{Time: 1, Memory: 64 * 1024, Threads: 4}
}

// Name records the work factor too, e.g. "argon2id:t=1,m=65536,p=4", so a
// later change of parameters does not break existing accounts.
func (h Argon2idHasher) Name() string {
	return fmt.Sprintf("%s:t=%d,m=%d,p=%d", AlgoArgon2id, h.Time, h.Memory, h.Threads)
}

func (h Argon2idHasher) Hash(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), h.Time, h.Memory, h.Threads, 32)
	return hex.EncodeToString(key)
}

// ForAlgo resolves a stored algorithm name. An empty name means sha256,
// which is what accounts created before the column existed used. A bare
// "argon2id" selects DefaultArgon2id.
func ForAlgo(name string) (Hasher, error) {
	switch {
	case name == "" || name == AlgoSHA256:
		return SHA256Hasher{}, nil
	case name == AlgoArgon2id:
		return DefaultArgon2id(), nil
	case strings.HasPrefix(name, AlgoArgon2id+":"):
		var h Argon2idHasher
		params := strings.TrimPrefix(name, AlgoArgon2id+":")
		if _, err := fmt.Sscanf(params, "t=%d,m=%d,p=%d", &h.Time, &h.Memory, &h.Threads); err != nil {
			return nil, fmt.Errorf("invalid argon2id parameters %q: %w", params, err)
		}
		if h.Time == 0 || h.Memory == 0 || h.Threads == 0 {
			return nil, fmt.Errorf("invalid argon2id parameters %q", params)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", name)
	}
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
