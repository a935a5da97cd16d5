package tokenstore

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
)

// Clients never send raw secrets: they pre-hash with PBKDF2-SHA512 and
// submit an encoded string that embeds its own parameters, so the server
// can re-derive the hash-parameter set for later lookups. The server then
// bcrypts the whole encoded string at rest.
const (
	hashAlgorithm     = "pbkdf2-sha512"
	hashKeyLength     = 32
	defaultIterations = 100000
	defaultSaltBytes  = 16
)

// EncodeHash derives the client-side hash string for a secret:
// "pbkdf2-sha512$<iterations>$<hexsalt>$<hexdigest>".
func EncodeHash(secret string, params authn.HashParameters) (string, error) {
	if params.Algorithm != hashAlgorithm {
		return "", fmt.Errorf("unsupported hash algorithm %q", params.Algorithm)
	}
	salt, err := util.HexDecode(params.Salt)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(secret), salt, params.Iterations, hashKeyLength, sha512.New)
	encoded := strings.Join([]string{
		hashAlgorithm,
		strconv.Itoa(params.Iterations),
		params.Salt,
		util.HexEncode(digest),
	}, "$")
	util.WipeBytes(digest)
	return encoded, nil
}

// NewHashParameters generates a fresh salt with default iterations.
func NewHashParameters() (authn.HashParameters, error) {
	salt, err := util.RandomBytes(defaultSaltBytes)
	if err != nil {
		return authn.HashParameters{}, err
	}
	return authn.HashParameters{
		Algorithm:  hashAlgorithm,
		Salt:       util.HexEncode(salt),
		Iterations: defaultIterations,
	}, nil
}

// bcryptInput pre-digests the encoded hash string so the value handed to
// bcrypt stays under its 72 byte input limit (the encoded form is well
// over 100 bytes). The hex form keeps NUL bytes out of the input.
func bcryptInput(encoded string) []byte {
	sum := sha256.Sum256([]byte(encoded))
	return []byte(util.HexEncode(sum[:]))
}

// parseHashParameters extracts the embedded parameter set from a client
// hash string without validating the digest.
func parseHashParameters(hash string) (authn.HashParameters, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || parts[0] != hashAlgorithm {
		return authn.HashParameters{}, fmt.Errorf("malformed hash string")
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return authn.HashParameters{}, fmt.Errorf("malformed hash iterations")
	}
	if _, err := util.HexDecode(parts[2]); err != nil {
		return authn.HashParameters{}, fmt.Errorf("malformed hash salt")
	}
	return authn.HashParameters{
		Algorithm:  hashAlgorithm,
		Salt:       parts[2],
		Iterations: iterations,
	}, nil
}
