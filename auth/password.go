package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
)

// ComputePassword derives the session password: lowercase hex of HMAC-SHA1 keyed by the
// app token over the challenge.
func ComputePassword(appToken, challenge string) string {
	mac := hmac.New(sha1.New, []byte(appToken))
	mac.Write([]byte(challenge))
	return hex.EncodeToString(mac.Sum(nil))
}
