package usecase

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/cozydenis/auth-lab/config"
)

// ErrMalformedDigest marks a stored digest that cannot be parsed. Callers
// treat it as a verification failure, not a fatal error.
var ErrMalformedDigest = errors.New("malformed password digest")

// Hasher is the one-way credential hashing contract. Digests are
// self-describing PHC strings with an embedded per-hash salt.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) (bool, error)
}

// Argon2Params are fixed process-wide at startup.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

func ParamsFromConfig(cfg *config.Config) Argon2Params {
	return Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
		KeyLen:  cfg.Argon2KeyLen,
		SaltLen: cfg.Argon2SaltLen,
	}
}

type argon2Hasher struct{ params Argon2Params }

func NewHasher(params Argon2Params) Hasher { return &argon2Hasher{params: params} }

func (h *argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify derives a key with the parameters embedded in the digest, so hashes
// produced under older cost settings keep verifying after a config change.
func (h *argon2Hasher) Verify(digest, plaintext string) (bool, error) {
	params, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}
	derived := argon2.IDKey([]byte(plaintext), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

func decodeDigest(digest string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedDigest
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedDigest
	}
	return p, salt, key, nil
}
