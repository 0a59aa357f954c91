package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32

	argonPrefix = "argon2id$"
)

var ErrUnsupportedHash = errors.New("unsupported password hash format")

// GenerateSalt returns a random 16 byte salt, hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandomPassword returns an 8 character hex password used by the
// reset flow.
func GenerateRandomPassword() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashPasswordArgon2 hashes password with argon2id. The parameters travel
// with the hash as argon2id$<time>$<memory>$<threads>$<base64 key>.
func HashPasswordArgon2(password, salt string) (string, error) {
	if salt == "" {
		return "", errors.New("salt is required")
	}
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("%s%d$%d$%d$%s", argonPrefix, argonTime, argonMemory, argonThreads,
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// HashNewPassword generates a salt and hashes password with it.
func HashNewPassword(password string) (hash, salt string, err error) {
	salt, err = GenerateSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = HashPasswordArgon2(password, salt)
	return hash, salt, err
}

// IsLegacyHash reports whether stored was produced by the previous system
// (bcrypt) and should be upgraded after a successful login.
func IsLegacyHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// VerifyPassword checks password against an argon2id or legacy bcrypt hash.
func VerifyPassword(password, stored, salt string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, argonPrefix):
		return verifyArgon2(password, stored, salt)
	case IsLegacyHash(stored):
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, ErrUnsupportedHash
	}
}

func verifyArgon2(password, stored, salt string) (bool, error) {
	parts := strings.Split(strings.TrimPrefix(stored, argonPrefix), "$")
	if len(parts) != 4 {
		return false, ErrUnsupportedHash
	}
	t, err1 := strconv.ParseUint(parts[0], 10, 32)
	m, err2 := strconv.ParseUint(parts[1], 10, 32)
	p, err3 := strconv.ParseUint(parts[2], 10, 8)
	want, err4 := base64.RawStdEncoding.DecodeString(parts[3])
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
	}

	got := argon2.IDKey([]byte(password), []byte(salt), uint32(t), uint32(m), uint8(p), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
