package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hoogi/config"
	"hoogi/models"
)

func TestJWTTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	user := &models.User{Model: gorm.Model{ID: 42}}

	token, err := GenerateJWTToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestParseJWTTokenRejectsGarbage(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	_, err := ParseJWTToken("not.a.token")
	assert.Error(t, err)
}

func TestParseJWTTokenRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := GenerateJWTToken(&models.User{Model: gorm.Model{ID: 1}})
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "other-secret"
	_, err = ParseJWTToken(token)
	assert.Error(t, err)
}
