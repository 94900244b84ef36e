package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"driftchat/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	token, err := svc.CreateForExternalID("ext-42")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, "ext-42", claims["sub"])
}

func TestTokenWrongSecret(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)
	other := security.NewTokenService("another-secret", time.Hour)

	token, err := svc.CreateForExternalID("ext-42")
	assert.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	token, err := svc.CreateWithTTL("ext-42", -time.Minute)
	assert.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
}
