package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/identity"
	"github.com/matryer/is"
)

func TestTokens(t *testing.T) {
	tokens := identity.TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "lending-service",
		Duration: time.Hour,
	}

	t.Run("signs and parses a token without errors", func(t *testing.T) {
		is := is.New(t)
		userID := uuid.New()

		token, exp, err := tokens.Sign(userID)
		is.NoErr(err)
		is.True(exp.After(time.Now()))

		parsed, err := tokens.Parse(token)
		is.NoErr(err)
		is.Equal(parsed, userID)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		is := is.New(t)
		other := identity.TokenService{Secret: []byte("other"), Issuer: tokens.Issuer, Duration: time.Hour}

		token, _, err := other.Sign(uuid.New())
		is.NoErr(err)

		_, err = tokens.Parse(token)
		is.True(errors.Is(err, identity.ErrInvalidToken))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		is := is.New(t)
		expired := identity.TokenService{Secret: tokens.Secret, Issuer: tokens.Issuer, Duration: -time.Minute}

		token, _, err := expired.Sign(uuid.New())
		is.NoErr(err)

		_, err = tokens.Parse(token)
		is.True(errors.Is(err, identity.ErrInvalidToken))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		is := is.New(t)

		_, err := tokens.Parse("not.a.token")
		is.True(errors.Is(err, identity.ErrInvalidToken))
	})
}

func TestUserIDContext(t *testing.T) {
	is := is.New(t)

	_, ok := identity.UserID(context.Background())
	is.True(!ok)

	_, ok = identity.UserID(identity.WithUserID(context.Background(), uuid.Nil))
	is.True(!ok)

	userID := uuid.New()
	got, ok := identity.UserID(identity.WithUserID(context.Background(), userID))
	is.True(ok)
	is.Equal(got, userID)
}
