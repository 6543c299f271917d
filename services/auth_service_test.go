package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/utils"
)

func TestRegister(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{
		Name: " Alice ", Email: " Alice@Example.com ", Password: "pw123456", Phone: "01700000000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.NotEqual(t, "pw123456", res.User.PasswordHash)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Alice 2", Email: "alice@example.com", Password: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindDuplicate))
	assert.EqualError(t, err, "Email already registered")
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t, defaultOpts())
	cases := map[string]RegisterInput{
		"missing name":     {Email: "a@b.com", Password: "pw"},
		"missing email":    {Name: "A", Password: "pw"},
		"missing password": {Name: "A", Email: "a@b.com"},
		"blank name":       {Name: "   ", Email: "a@b.com", Password: "pw"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), in)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
			assert.EqualError(t, err, "Please provide name, email, and password")
		})
	}

	_, err := f.auth.Register(context.Background(), RegisterInput{Name: "A", Email: "not-an-email", Password: "pw"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestLogin(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()
	f.register(t, "Alice", "alice@example.com")

	res, err := f.auth.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)

	_, err = f.auth.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	assert.EqualError(t, err, "Invalid credentials")

	_, err = f.auth.Login(ctx, "nobody@example.com", "password123")
	assert.EqualError(t, err, "Invalid credentials")

	_, err = f.auth.Login(ctx, "", "password123")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.EqualError(t, err, "Please provide email and password")
}

func TestResolveSession_RereadsRole(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)

	id, err := f.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, id.IsAdmin())
	assert.NotEmpty(t, id.TokenID)

	u, err := f.store.Users().FindUserByID(ctx, id.UserID)
	require.NoError(t, err)
	u.Role = models.RoleAdmin
	require.NoError(t, f.store.Users().UpdateUser(ctx, u))

	id, err = f.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin(), "role comes from the store, not the token")
}

func TestResolveSession_FailsClosed(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	ghost, _, err := utils.NewTokenManager("test-secret", time.Hour).GenerateToken("65a1b2c3d4e5f60718293a4b")
	require.NoError(t, err)
	notAnID, _, err := utils.NewTokenManager("test-secret", time.Hour).GenerateToken("user-1")
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"missing":        "",
		"garbage":        "abc.def.ghi",
		"unknown user":   ghost,
		"malformed user": notAnID,
	} {
		t.Run(name, func(t *testing.T) {
			id, err := f.auth.ResolveSession(ctx, tok)
			assert.Nil(t, id)
			assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Name: "Carol", Email: "carol@example.com", Password: "pw"})
	require.NoError(t, err)
	id, err := f.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, id))

	_, err = f.auth.ResolveSession(ctx, res.Token)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))

	again, err := f.auth.Login(ctx, "carol@example.com", "pw")
	require.NoError(t, err)
	_, err = f.auth.ResolveSession(ctx, again.Token)
	assert.NoError(t, err, "a fresh login is unaffected")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()
	id := f.register(t, "Dan", "dan@example.com")

	u, err := f.auth.UpdateProfile(ctx, id, models.ProfileUpdate{
		Name:    ptr(" Daniel "),
		Address: ptr("Dhaka"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Daniel", u.Name)
	assert.Equal(t, "Dhaka", u.Address)
	assert.Equal(t, "dan@example.com", u.Email)

	_, err = f.auth.UpdateProfile(ctx, id, models.ProfileUpdate{Name: ptr("")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.auth.UpdateProfile(ctx, nil, models.ProfileUpdate{})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
}
