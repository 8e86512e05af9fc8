package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrUnauthorized is returned by transport layers when the gate refuses a
// write request.
var ErrUnauthorized = errors.New("unauthorized")

// Gate admits a single configured admin identity. It holds no state beyond
// the credential and is safe for concurrent use.
type Gate struct {
	username []byte
	secret   []byte
}

func NewGate(username, secret string) *Gate {
	return &Gate{username: []byte(username), secret: []byte(secret)}
}

// Authorize reports whether username and secret both exactly match the
// configured credential. A gate without a secret admits nobody.
func (g *Gate) Authorize(username, secret string) bool {
	if g == nil || len(g.secret) == 0 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), g.username)
	secretOK := subtle.ConstantTimeCompare([]byte(secret), g.secret)
	return userOK&secretOK == 1
}

// ParseBasic decodes an "Authorization: Basic ..." header value.
func ParseBasic(header string) (username, secret string, ok bool) {
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	username, secret, ok = strings.Cut(string(raw), ":")
	return username, secret, ok
}

// BasicHeader encodes credentials for an Authorization header.
func BasicHeader(username, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+secret))
}
