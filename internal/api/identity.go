package api

import (
	"encoding/hex"
	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"net/http"
	"strings"
)

// NormalizeIdentity returns the canonical form of an identity. Zilliqa
// addresses are reduced to lower case bech32 whether given as bech32 or
// base16; any other value is an opaque identity and is returned trimmed.
func NormalizeIdentity(identity string) string {
	identity = strings.TrimSpace(identity)

	if strings.HasPrefix(strings.ToLower(identity), "zil1") {
		if _, err := bech32.FromBech32Addr(identity); err == nil {
			return strings.ToLower(identity)
		}
		return identity
	}

	base16 := strings.TrimPrefix(strings.TrimPrefix(identity, "0x"), "0X")
	if len(base16) == 40 {
		if _, err := hex.DecodeString(base16); err == nil {
			if address, err := bech32.ToBech32Address(base16); err == nil {
				return address
			}
		}
	}

	return identity
}

func getIdentity(r *http.Request) (string, error) {
	identity := NormalizeIdentity(r.Header.Get(IdentityHeader))
	if identity == "" {
		return "", ErrMissingIdentity
	}

	return identity, nil
}
