package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/console/console-service/internal/command"
	"github.com/eaglebank/console/console-service/internal/query"
	"github.com/eaglebank/console/console-service/internal/repository"
	"github.com/eaglebank/console/shared/cqrs"
	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/events"
	"github.com/eaglebank/console/shared/models"
	"github.com/eaglebank/console/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AuditEvent
}

func (p *recordingPublisher) PublishAudit(_ context.Context, e events.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) last() events.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	svc    *Service
	store  *repository.MemoryAccountStore
	hasher utils.CredentialHasher
	audit  *recordingPublisher
	redis  *miniredis.Miniredis
}

const profileTTL = 30 * time.Second

var (
	alice = models.Principal{UserID: "u-100", Access: 1}
	root  = models.Principal{UserID: "u-1", Access: models.AccessSuperAdmin}
)

// newFixture runs the real services over the in-memory store and a
// miniredis-backed profile cache. The SHA-256 hasher is deterministic, so
// stored credentials can be compared with Hash output directly.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repository.NewMemoryAccountStore()
	hasher := utils.SHA256Hasher{}
	audit := &recordingPublisher{}
	auditor := events.NewAuditor(audit, nil)
	readRepo := repository.NewAccountReadRepository(store, client, profileTTL, nil)

	f := &fixture{
		svc: New(
			command.NewAccountCommandService(store, readRepo, hasher, auditor),
			query.NewAccountQueryService(store, readRepo, hasher, auditor),
		),
		store:  store,
		hasher: hasher,
		audit:  audit,
		redis:  mr,
	}
	f.seed(t, "u-1", "Root", "root", "rootpw", models.AccessSuperAdmin)
	f.seed(t, "u-100", "Alice", "alice", "p1", 1)
	f.seed(t, "u-200", "Carol", "carol", "c1", 1)
	return f
}

func (f *fixture) seed(t *testing.T, id, name, userName, password string, access int) {
	t.Helper()
	hashed, err := f.hasher.Hash(password)
	require.NoError(t, err)
	require.NoError(t, f.store.Create(context.Background(), models.Account{
		UserID:   id,
		Name:     name,
		UserName: userName,
		Password: hashed,
		Access:   access,
	}))
}

func (f *fixture) account(t *testing.T, id string) models.Account {
	t.Helper()
	a, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *a
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
	require.NoError(t, err)
	assert.Equal(t, "u-100", view.UserID)
	assert.Equal(t, "alice", view.UserName)

	view, err = f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice, UserID: "u-200"})
	require.NoError(t, err)
	assert.Equal(t, "carol", view.UserName)

	view, err = f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice, UserID: "  "})
	require.NoError(t, err)
	assert.Equal(t, "u-100", view.UserID)

	_, err = f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice, UserID: "ghost"})
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	assert.Equal(t, "not_found", f.audit.last().Detail["outcome"])
}

func TestVerifyPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice, Password: "p1"}))
	assert.ErrorIs(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice, Password: "p2"}), errs.ErrPasswordMismatch)
	assert.ErrorIs(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice}), errs.ErrInvalidParams)

	ghost := models.Principal{UserID: "ghost", Access: 1}
	assert.ErrorIs(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: ghost, Password: "x"}), errs.ErrAccountNotFound)

	e := f.audit.last()
	assert.Equal(t, events.LogUserCheckPassword, e.LogType)
	assert.Equal(t, "ghost", e.UserID)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates and is idempotent", func(t *testing.T) {
		f := newFixture(t)
		cmd := cqrs.UpdateProfileCommand{Principal: alice, Name: "Alice B", UserName: "aliceb"}

		require.NoError(t, f.svc.UpdateProfile(ctx, cmd))
		first := f.account(t, "u-100")
		require.NoError(t, f.svc.UpdateProfile(ctx, cmd))
		assert.Equal(t, first, f.account(t, "u-100"))
		assert.Equal(t, "Alice B", first.Name)
		assert.Equal(t, "aliceb", first.UserName)
	})

	t.Run("keeping own user name is allowed", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: alice, Name: "Renamed", UserName: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", f.account(t, "u-100").Name)
	})

	t.Run("taken user name changes nothing", func(t *testing.T) {
		f := newFixture(t)
		before := f.account(t, "u-100")
		err := f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: alice, Name: "X", UserName: "carol"})
		assert.ErrorIs(t, err, errs.ErrUserNameTaken)
		assert.Equal(t, before, f.account(t, "u-100"))
		assert.Equal(t, "conflict", f.audit.last().Detail["outcome"])
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: alice, UserName: "bob"})
		assert.ErrorIs(t, err, errs.ErrInvalidParams)
	})

	t.Run("unknown caller is not modified", func(t *testing.T) {
		f := newFixture(t)
		ghost := models.Principal{UserID: "ghost", Access: 1}
		err := f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: ghost, Name: "G", UserName: "ghost"})
		assert.ErrorIs(t, err, errs.ErrNotModified)
	})
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	key := "console:profile:u-100"

	t.Run("reads warm the cache", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		require.NoError(t, err)
		assert.True(t, f.redis.Exists(key))
		assert.Equal(t, profileTTL, f.redis.TTL(key))
	})

	t.Run("own update clears the entry", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		require.NoError(t, err)
		require.NoError(t, f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: alice, Name: "New", UserName: "alice"}))
		assert.False(t, f.redis.Exists(key))

		view, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		require.NoError(t, err)
		assert.Equal(t, "New", view.Name)
	})

	t.Run("admin update clears the target entry", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: root, UserID: "u-100"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "u-100", Name: "Al", UserName: "al",
		}))
		assert.False(t, f.redis.Exists(key))
	})

	t.Run("failed update keeps the entry", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		require.NoError(t, err)
		err = f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: alice, Name: "X", UserName: "carol"})
		require.ErrorIs(t, err, errs.ErrUserNameTaken)
		assert.True(t, f.redis.Exists(key))
	})

	t.Run("account deleted elsewhere is not found once the entry expires", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		require.NoError(t, err)
		f.store.Delete(ctx, "u-100")

		f.redis.FastForward(profileTTL + time.Second)
		_, err = f.svc.GetProfile(ctx, cqrs.GetProfileQuery{Principal: alice})
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("new password verifies", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Principal: alice, Password: "p1", NewPassword: "p2"}))
		want, err := f.hasher.Hash("p2")
		require.NoError(t, err)
		assert.Equal(t, want, f.account(t, "u-100").Password)
		assert.NoError(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice, Password: "p2"}))
		assert.ErrorIs(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice, Password: "p1"}), errs.ErrPasswordMismatch)
	})

	t.Run("wrong old password keeps hash", func(t *testing.T) {
		f := newFixture(t)
		before := f.account(t, "u-100").Password
		err := f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Principal: alice, Password: "bad", NewPassword: "p2"})
		assert.ErrorIs(t, err, errs.ErrOldPasswordIncorrect)
		assert.Equal(t, before, f.account(t, "u-100").Password)
	})

	t.Run("unknown caller", func(t *testing.T) {
		f := newFixture(t)
		ghost := models.Principal{UserID: "ghost", Access: 1}
		err := f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Principal: ghost, Password: "a", NewPassword: "b"})
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})
}

func TestAdminUpdateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin changes nothing", func(t *testing.T) {
		f := newFixture(t)
		before := f.account(t, "u-200")
		err := f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: alice, UserID: "u-200", Name: "Eve", UserName: "eve", Password: "x",
		})
		assert.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, before, f.account(t, "u-200"))
		assert.Equal(t, "forbidden", f.audit.last().Detail["outcome"])
	})

	t.Run("admin with empty user id is forbidden", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: models.Principal{Access: models.AccessSuperAdmin}, UserID: "u-200", Name: "E", UserName: "e",
		})
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("password is optional", func(t *testing.T) {
		f := newFixture(t)
		before := f.account(t, "u-200").Password
		require.NoError(t, f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "u-200", Name: "Caroline", UserName: "caroline",
		}))
		after := f.account(t, "u-200")
		assert.Equal(t, before, after.Password)
		assert.Equal(t, "Caroline", after.Name)
		assert.Equal(t, "caroline", after.UserName)
	})

	t.Run("password is replaced when given", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "u-100", Name: "Alice", UserName: "alice", Password: "reset",
		}))
		assert.NoError(t, f.svc.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{Principal: alice, Password: "reset"}))
		assert.Equal(t, true, f.audit.last().Detail["passwordChanged"])
	})

	t.Run("missing target", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "  ", Name: "A", UserName: "a",
		})
		assert.ErrorIs(t, err, errs.ErrInvalidParams)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "ghost", Name: "G", UserName: "g",
		})
		assert.ErrorIs(t, err, errs.ErrNotModified)
	})

	t.Run("duplicate user name refused by store", func(t *testing.T) {
		f := newFixture(t)
		before := f.account(t, "u-200")
		err := f.svc.AdminUpdateAccount(ctx, cqrs.AdminUpdateAccountCommand{
			Principal: root, UserID: "u-200", Name: "C", UserName: "alice",
		})
		assert.ErrorIs(t, err, errs.ErrUserNameTaken)
		assert.Equal(t, before, f.account(t, "u-200"))
	})
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		svc := New(
			command.NewAccountCommandService(repository.NewMemoryAccountStore(), nil, utils.SHA256Hasher{}, nil),
			query.NewAccountQueryService(repository.NewMemoryAccountStore(), nil, utils.SHA256Hasher{}, nil),
		)
		rows, err := svc.ListAccounts(ctx, cqrs.ListAccountsQuery{Principal: alice})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("capped at page size", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 150; i++ {
			f.seed(t, fmt.Sprintf("bulk-%03d", i), "Bulk", fmt.Sprintf("bulk%03d", i), "pw", 1)
		}
		rows, err := f.svc.ListAccounts(ctx, cqrs.ListAccountsQuery{Principal: alice})
		require.NoError(t, err)
		assert.Len(t, rows, query.ListPageSize)
		assert.Equal(t, "u-1", rows[0].UserID)
	})
}

func TestConcurrentUserNameClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claimants := []models.Principal{alice, {UserID: "u-200", Access: 1}}

	var wg sync.WaitGroup
	results := make([]error, len(claimants))
	for i, p := range claimants {
		wg.Add(1)
		go func(i int, p models.Principal) {
			defer wg.Done()
			results[i] = f.svc.UpdateProfile(ctx, cqrs.UpdateProfileCommand{Principal: p, Name: "N", UserName: "contested"})
		}(i, p)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, errs.ErrUserNameTaken)
		}
	}
	assert.Equal(t, 1, succeeded)
}
