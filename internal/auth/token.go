package auth

import (
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ExtractBearerToken returns the credential after the literal "Bearer "
// prefix of the first Authorization header. The token itself is not inspected.
func ExtractBearerToken(header http.Header) (string, error) {
	authHeader := header.Get(HeaderAuthorization)
	if authHeader == "" {
		return "", ErrEmptyToken
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrEmptyToken
	}

	token := authHeader[len(bearerPrefix):]
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// Fingerprint identifies a token in logs and audit records without
// revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:fingerprintBytes])
}
