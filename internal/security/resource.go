package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignResource returns the hex HMAC-SHA256 of parts joined with ":". Parts
// must not contain ":" themselves or two different tuples could collide.
func SignResource(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyResource(secret string, signature string, parts ...string) bool {
	return hmac.Equal([]byte(signature), []byte(SignResource(secret, parts...)))
}
