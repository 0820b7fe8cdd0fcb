package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// CreateSessionToken signs userID together with an expiry time.
// Format: base64url(userID "|" unixSeconds) "." hex(hmac-sha256).
func CreateSessionToken(userID string, expires time.Time, secret []byte) string {
	payload := []byte(userID + "|" + strconv.FormatInt(expires.Unix(), 10))
	return base64.URLEncoding.EncodeToString(payload) + "." + sign(payload, secret)
}

// VerifySessionToken checks the signature and expiry and returns the user ID.
func VerifySessionToken(token string, secret []byte, now time.Time) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalidToken
	}
	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(sign(payload, secret)), []byte(parts[1])) {
		return "", ErrInvalidToken
	}

	sep := strings.LastIndexByte(string(payload), '|')
	if sep <= 0 {
		return "", ErrInvalidToken
	}
	exp, err := strconv.ParseInt(string(payload[sep+1:]), 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !now.Before(time.Unix(exp, 0)) {
		return "", ErrTokenExpired
	}
	return string(payload[:sep]), nil
}

func sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

const sessionCookieName = "brightside_admin"
const minSecretLen = 32

// DefaultTokenTTL is how long a minted admin token stays valid.
const DefaultTokenTTL = 30 * 24 * time.Hour

// SessionCookieName is the cookie the admin dashboard stores the token in.
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes derives the signing key from s, zero-padded to 32 bytes.
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}
