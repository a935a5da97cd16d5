package api

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
)

const (
	decoyAlgorithm  = "pbkdf2-sha512"
	decoySaltBytes  = 16
	decoyIterations = 100000
)

// decoyParameters derives deterministic hash parameters for an identity
// from the enclave-held decoy key. The handler runs this derivation on
// every hash-parameter lookup, hit or miss, so response latency does not
// reveal whether the identity exists; the same identity always yields the
// same salt, so repeated probes cannot distinguish a decoy by its
// instability.
func (a *API) decoyParameters(account, email string) authn.HashParameters {
	identity := account
	if identity == "" {
		identity = util.Normalize(email)
	}

	params := authn.HashParameters{
		Algorithm:  decoyAlgorithm,
		Iterations: decoyIterations,
	}

	buf, err := a.decoyKey.Open()
	if err != nil {
		// The enclave only fails under memory pressure; a zero salt still
		// keeps the latency profile identical.
		params.Salt = util.HexEncode(make([]byte, decoySaltBytes))
		return params
	}
	defer buf.Destroy()

	mac := hmac.New(sha256.New, buf.Bytes())
	mac.Write([]byte(identity))
	sum := mac.Sum(nil)
	params.Salt = util.HexEncode(sum[:decoySaltBytes])
	return params
}
