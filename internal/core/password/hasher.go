// Package password hashes and verifies credentials. Stored hashes are
// self-describing: the prefix identifies the producing algorithm, so
// verification dispatches on the stored value rather than on the currently
// configured default. Changing the default never invalidates old hashes.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects which algorithm produces new hashes.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16

	// DefaultBcryptCost matches the cost the service historically used.
	DefaultBcryptCost = 12
)

// Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	algo       Algorithm
	bcryptCost int
}

func New(algo Algorithm, bcryptCost int) (*Hasher, error) {
	switch algo {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return nil, fmt.Errorf("password: unsupported algorithm %q", algo)
	}
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{algo: algo, bcryptCost: bcryptCost}, nil
}

// Hash produces a self-describing hash using the configured algorithm.
func (h *Hasher) Hash(password string) (string, error) {
	switch h.algo {
	case AlgorithmBcrypt:
		out, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("password: bcrypt hash: %w", err)
		}
		return string(out), nil
	default:
		return hashArgon2id(password)
	}
}

// hashFormat binds a self-describing prefix to its verify routine.
type hashFormat struct {
	prefix string
	verify func(password, stored string) bool
}

// The closed set of hash formats this service has ever produced.
var hashFormats = []hashFormat{
	{prefix: "$argon2id$", verify: verifyArgon2id},
	{prefix: "$2a$", verify: verifyBcrypt},
	{prefix: "$2b$", verify: verifyBcrypt},
	{prefix: "$2y$", verify: verifyBcrypt},
}

// Verify reports whether password matches stored. Malformed or unrecognized
// stored hashes fail closed: the result is false, never an error.
func (h *Hasher) Verify(password, stored string) bool {
	for _, f := range hashFormats {
		if strings.HasPrefix(stored, f.prefix) {
			return f.verify(password, stored)
		}
	}
	return false
}

func verifyBcrypt(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func hashArgon2id(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

func verifyArgon2id(password, stored string) bool {
	params, salt, key, err := decodeArgon2id(stored)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, params.keyLen)
	return subtle.ConstantTimeCompare(key, other) == 1
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func decodeArgon2id(encoded string) (*argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("password: malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("password: argon2id version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("password: incompatible argon2 version %d", version)
	}

	params := &argonParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, nil, fmt.Errorf("password: argon2id params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("password: decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("password: decode key: %w", err)
	}
	params.keyLen = uint32(len(key))

	return params, salt, key, nil
}
