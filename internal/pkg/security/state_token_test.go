package security

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-app-secret"

func withClock(t *testing.T, at time.Time) {
	t.Helper()
	now = func() time.Time { return at }
	t.Cleanup(func() { now = time.Now })
}

func TestGenerateStateToken(t *testing.T) {
	token, err := GenerateStateToken(testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Contains(t, token, ".")
	assert.True(t, ValidateStateToken(token, testSecret))
}

func TestGenerateStateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateStateToken("")
	assert.Error(t, err)
}

func TestValidateStateTokenExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	withClock(t, issued)

	token, err := GenerateStateToken(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"Immediately after issuance", issued, true},
		{"Just inside TTL", issued.Add(StateTokenTTL), true},
		{"One second past TTL", issued.Add(StateTokenTTL + time.Second), false},
		{"Within future skew", issued.Add(-30 * time.Second), true},
		{"Beyond future skew", issued.Add(-(StateTokenFutureSkew + time.Second)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = func() time.Time { return tt.at }
			assert.Equal(t, tt.valid, ValidateStateToken(token, testSecret))
		})
	}
}

func TestValidateStateTokenTamper(t *testing.T) {
	token, err := GenerateStateToken(testSecret)
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	// Every single-bit flip in the payload must break the signature.
	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(payload))
			copy(mutated, payload)
			mutated[i] ^= 1 << bit
			forged := base64.RawURLEncoding.EncodeToString(mutated) + "." + parts[1]
			assert.False(t, ValidateStateToken(forged, testSecret), "flipped byte %d bit %d", i, bit)
		}
	}
}

func TestValidateStateTokenMalformed(t *testing.T) {
	valid, err := GenerateStateToken(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Empty token", ""},
		{"Missing separator", strings.ReplaceAll(valid, ".", "")},
		{"Bad payload encoding", "!!!." + strings.SplitN(valid, ".", 2)[1]},
		{"Bad signature encoding", strings.SplitN(valid, ".", 2)[0] + ".!!!"},
		{"Payload not JSON", base64.RawURLEncoding.EncodeToString([]byte("nope")) + "." + strings.SplitN(valid, ".", 2)[1]},
		{"Wrong secret", valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ValidateStateToken(tt.token, testSecret))
		})
	}
}

func TestValidateStateTokenOtherSecret(t *testing.T) {
	token, err := GenerateStateToken(testSecret)
	require.NoError(t, err)

	assert.False(t, ValidateStateToken(token, "other-secret"))
	assert.False(t, ValidateStateToken(token, ""))
}
