package services

import (
	"context"
	"strings"
	"testing"

	"pollhub/models"
	"pollhub/testutil"
	"pollhub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminAuth(t *testing.T) (*AdminAuthService, *testutil.AdminStore) {
	t.Helper()
	store := testutil.NewAdminStore()
	svc := NewAdminAuthService(store, testutil.NewTokenService(t), SuperAdminCredentials{Username: "root", Password: "toor-password"})
	return svc, store
}

func TestLogin_SuperAdmin(t *testing.T) {
	svc, _ := newAdminAuth(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "root", "toor-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, session.User.Role)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.RefreshToken)

	user, err := svc.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "root", user.Username)

	_, err = svc.Authenticate(session.RefreshToken)
	assert.Equal(t, 401, StatusCode(err), "refresh tokens are not access tokens")
}

func TestLogin_StoredAdmin(t *testing.T) {
	svc, store := newAdminAuth(t)
	ctx := context.Background()

	created, err := svc.CreateAdmin(ctx, CreateAdminInput{Username: "alice", Email: "Alice@Example.com", Password: "longpassword"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.Equal(t, "alice@example.com", created.Email)

	session, err := svc.Login(ctx, "alice", "longpassword")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.User.Role)

	session, err = svc.Login(ctx, "alice@example.com", "longpassword")
	require.NoError(t, err)

	stored, err := store.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", refreshed.User.Username)

	_, err = svc.Refresh(ctx, session.Token)
	assert.Equal(t, 401, StatusCode(err))
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	svc, _ := newAdminAuth(t)
	ctx := context.Background()
	_, err := svc.CreateAdmin(ctx, CreateAdminInput{Username: "bob", Email: "bob@example.com", Password: "longpassword"})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nobody", "longpassword")
	_, wrongErr := svc.Login(ctx, "bob", "wrong-password")
	_, superErr := svc.Login(ctx, "root", "wrong-password")
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.ErrorIs(t, superErr, ErrInvalidCredentials)
	assert.Equal(t, Message(unknownErr), Message(wrongErr))

	_, err = svc.Login(ctx, "", "")
	assert.Equal(t, 400, StatusCode(err))
}

func TestLogin_UnknownUserStillHashes(t *testing.T) {
	svc, store := newAdminAuth(t)
	ctx := context.Background()

	var hashes []string
	svc.verify = func(password, hash string) bool {
		hashes = append(hashes, hash)
		return utils.CheckPasswordHash(password, hash)
	}

	_, err := svc.Login(ctx, "nobody", "longpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	assert.True(t, strings.HasPrefix(hashes[0], "$2"), "compared against a bcrypt hash")
	assert.Equal(t, hashes[0], decoyHash())

	hash, err := utils.HashPassword("longpassword")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &models.Admin{Username: "carol", Email: "carol@example.com", Password: hash, Role: models.RoleAdmin}))

	_, err = svc.Login(ctx, "carol", "longpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "inactive accounts cannot log in")
	assert.Len(t, hashes, 2, "inactive accounts are still hashed")
}

func TestCreateAdmin_Validation(t *testing.T) {
	svc, _ := newAdminAuth(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateAdminInput
	}{
		{"no username", CreateAdminInput{Email: "a@b.co", Password: "longpassword"}},
		{"bad email", CreateAdminInput{Username: "a", Email: "nope", Password: "longpassword"}},
		{"short password", CreateAdminInput{Username: "a", Email: "a@b.co", Password: "short"}},
		{"bad role", CreateAdminInput{Username: "a", Email: "a@b.co", Password: "longpassword", Role: "owner"}},
		{"reserved", CreateAdminInput{Username: "ROOT", Email: "a@b.co", Password: "longpassword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAdmin(ctx, tt.in)
			assert.Equal(t, 400, StatusCode(err))
		})
	}

	_, err := svc.CreateAdmin(ctx, CreateAdminInput{Username: "carol", Email: "carol@example.com", Password: "longpassword"})
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, CreateAdminInput{Username: "carol", Email: "other@example.com", Password: "longpassword"})
	assert.Equal(t, 400, StatusCode(err))

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestCheckAuth_NeverFails(t *testing.T) {
	svc, _ := newAdminAuth(t)

	status := svc.CheckAuth("")
	assert.False(t, status.Authenticated)
	assert.Nil(t, status.User)

	status = svc.CheckAuth("garbage")
	assert.False(t, status.Authenticated)

	session, err := svc.Login(context.Background(), "root", "toor-password")
	require.NoError(t, err)
	status = svc.CheckAuth(session.Token)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "root", status.User.Username)
}

func TestErrorLogService(t *testing.T) {
	svc := NewErrorLogService(testutil.NewErrorLogStore())
	ctx := context.Background()
	svc.Record(ctx, models.ErrorLog{RequestID: "r1", Status: 500})
	svc.Record(ctx, models.ErrorLog{RequestID: "r2", Status: 503})

	list, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.False(t, list.Logs[0].CreatedAt.IsZero())
}
