package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultTokenTTL = 30 * time.Minute

var errBadToken = errors.New("invalid or expired token")

// SignedURLSigner mints and checks time-limited fetch tokens for report
// artifacts. Token layout: exportID.expiryUnix.base64(relPath).hmac, signed
// over the first three parts.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate mints a token granting access to relPath until the TTL elapses.
func (s *SignedURLSigner) Generate(exportID, relPath string) (string, time.Time, error) {
	if exportID == "" || relPath == "" {
		return "", time.Time{}, errors.New("export ID and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret is not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	head := fmt.Sprintf("%s.%d.%s",
		exportID,
		expiresAt.Unix(),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
	)
	return head + "." + s.sign(head), expiresAt, nil
}

// Parse checks the signature and expiry and returns the token contents.
// Callers get a single opaque error so probing reveals nothing about which
// check failed.
func (s *SignedURLSigner) Parse(token string) (exportID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, errBadToken
	}

	head := strings.Join(parts[:3], ".")
	sig := parts[3]
	if !hmac.Equal([]byte(s.sign(head)), []byte(sig)) {
		return "", "", time.Time{}, errBadToken
	}

	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, errBadToken
	}
	expiresAt = time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, errBadToken
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", time.Time{}, errBadToken
	}
	return parts[0], string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(head string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(head)) //nolint:errcheck
	return hex.EncodeToString(mac.Sum(nil))
}
