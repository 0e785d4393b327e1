package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeChecksum builds the webhook integrity code:
// HMAC-SHA256(token + normalized status flag + secret) keyed with the secret.
// The status flag is "1" for a successful payment and "0" otherwise.
func ComputeChecksum(secret, token string, success bool) string {
	flag := "0"
	if success {
		flag = "1"
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(token + flag + secret))
	return hex.EncodeToString(h.Sum(nil))
}

// ChecksumMatches compares the supplied check_sum against the expected value
// in constant time.
func ChecksumMatches(secret, token string, success bool, supplied string) bool {
	expected := ComputeChecksum(secret, token, success)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied)))
}
