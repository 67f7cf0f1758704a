package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mkarchuk/gamestore/internal/store/storetest"
	"github.com/mkarchuk/gamestore/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// adultBirthdate returns a date-of-birth string for someone comfortably over
// the registration age.
func adultBirthdate() string {
	return time.Now().AddDate(-30, 0, 0).Format(validate.DateLayout)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts valid data", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		assert.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))
		assert.Equal(t, 1, fs.InsertUserCalls)
	})

	t.Run("rejects empty username without writing", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		assert.False(t, svc.Register(ctx, "   ", "hunter22", adultBirthdate()))
		assert.Zero(t, fs.InsertUserCalls)
	})

	t.Run("rejects short password", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		assert.False(t, svc.Register(ctx, "alice", "short", adultBirthdate()))
		assert.Zero(t, fs.InsertUserCalls)
	})

	t.Run("rejects unparsable birthdate", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		assert.False(t, svc.Register(ctx, "alice", "hunter22", "31-12-1990"))
		assert.Zero(t, fs.InsertUserCalls)
	})

	t.Run("rejects underage user", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		// Thirteenth birthday is tomorrow, so the user is still twelve.
		almostThirteen := time.Now().AddDate(-13, 0, 1).Format(validate.DateLayout)
		assert.False(t, svc.Register(ctx, "alice", "hunter22", almostThirteen))
		assert.Zero(t, fs.InsertUserCalls)
	})

	t.Run("accepts user on their thirteenth birthday", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		thirteenToday := time.Now().AddDate(-13, 0, 0).Format(validate.DateLayout)
		assert.True(t, svc.Register(ctx, "alice", "hunter22", thirteenToday))
	})

	t.Run("rejects duplicate username without writing", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		require.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))
		assert.False(t, svc.Register(ctx, "alice", "different1", adultBirthdate()))
		assert.Equal(t, 1, fs.InsertUserCalls)
	})

	t.Run("stores a hash, never the raw password", func(t *testing.T) {
		fs := storetest.NewFake()
		svc := NewAccountService(fs, nil)

		require.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))
		stored := fs.Hashes["alice"]
		require.NotEmpty(t, stored)
		assert.NotEqual(t, "hunter22", stored)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("hunter22")))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	svc := NewAccountService(fs, nil)
	require.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))

	t.Run("returns the user with a fresh cart", func(t *testing.T) {
		user := svc.Login(ctx, "alice", "hunter22")
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		require.NotNil(t, user.Cart)
		assert.Empty(t, user.Cart.Games)
	})

	t.Run("fails the same way for unknown user and wrong password", func(t *testing.T) {
		assert.Nil(t, svc.Login(ctx, "alice", "wrong-password"))
		assert.Nil(t, svc.Login(ctx, "nobody", "hunter22"))
	})
}

func TestUpdateUsername(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	svc := NewAccountService(fs, nil)
	require.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))
	require.True(t, svc.Register(ctx, "bob", "hunter22", adultBirthdate()))

	assert.False(t, svc.UpdateUsername(ctx, "alice", ""))
	assert.False(t, svc.UpdateUsername(ctx, "alice", "bob"))
	assert.False(t, svc.UpdateUsername(ctx, "carol", "carla"))
	assert.True(t, svc.UpdateUsername(ctx, "alice", "alicia"))

	// Credentials follow the rename.
	assert.NotNil(t, svc.Login(ctx, "alicia", "hunter22"))
	assert.Nil(t, svc.Login(ctx, "alice", "hunter22"))
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	svc := NewAccountService(fs, nil)
	require.True(t, svc.Register(ctx, "alice", "hunter22", adultBirthdate()))

	t.Run("nonexistent id fails before any delete is attempted", func(t *testing.T) {
		assert.False(t, svc.RemoveUser(ctx, 999))
		assert.Zero(t, fs.DeleteUserCalls)
	})

	t.Run("removes an existing user", func(t *testing.T) {
		user, err := fs.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.True(t, svc.RemoveUser(ctx, user.ID))
		assert.Equal(t, 1, fs.DeleteUserCalls)
		assert.Nil(t, svc.Login(ctx, "alice", "hunter22"))
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	svc := NewAccountService(fs, nil)
	for i := 0; i < 3; i++ {
		require.True(t, svc.Register(ctx, fmt.Sprintf("user%d", i), "hunter22", adultBirthdate()))
	}
	assert.Len(t, svc.ListUsers(ctx), 3)
}
