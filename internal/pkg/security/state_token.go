package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StateTokenTTL        = 600 * time.Second
	StateTokenFutureSkew = 60 * time.Second
)

// now is swapped out by tests to simulate clock movement.
var now = time.Now

// StateTokenClaims is the signed payload of an OAuth anti-forgery token.
// Tokens are stateless: verification needs only the token and the app secret,
// so the flow survives process restarts and scales across instances.
type StateTokenClaims struct {
	IssuedAt int64  `json:"iat"`
	Nonce    string `json:"nonce"`
}

func signStatePayload(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// GenerateStateToken issues a signed anti-forgery token for the OAuth login
// redirect. Format: base64url(payload) "." base64url(hmac-sha256 signature).
func GenerateStateToken(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for state token generation")
	}
	claims := StateTokenClaims{
		IssuedAt: now().Unix(),
		Nonce:    uuid.NewString(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	sig := signStatePayload(payload, secret)
	token := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig))
	return token, nil
}

// ValidateStateToken reports whether the token is authentic and fresh.
// Malformed input is simply invalid; nothing here reaches the caller as an
// error or panic, since the callback handler treats any failure the same way.
func ValidateStateToken(token, secret string) bool {
	if secret == "" || token == "" {
		return false
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	expected := signStatePayload(payloadBytes, secret)
	if !hmac.Equal(sigBytes, expected) {
		return false
	}
	var claims StateTokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return false
	}
	if claims.IssuedAt == 0 {
		return false
	}
	age := now().Unix() - claims.IssuedAt
	if age > int64(StateTokenTTL.Seconds()) {
		return false
	}
	if -age > int64(StateTokenFutureSkew.Seconds()) {
		return false
	}
	return true
}
