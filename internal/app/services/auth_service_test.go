package services

import (
	"context"
	"testing"
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	auth.BcryptCost = 4
	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour})
	svc := NewAuthService(memUsers{newMemStore()}, jwtSvc, zerolog.Nop())
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Email: "Ada@Example.com", Password: "password1", Name: " Ada "})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, "Ada", reg.User.Name)
	assert.Equal(t, "Bearer", reg.Token.TokenType)

	claims, err := jwtSvc.ValidateToken(reg.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "ada@example.com", Password: "password2", Name: "Ada"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	me, err := svc.GetUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
}
