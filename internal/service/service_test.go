package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecosol/internal/core/cache"
	"ecosol/internal/domain"
	"ecosol/internal/repo"
	"ecosol/internal/repo/repotest"
	"ecosol/internal/service"
)

type fakeMailer struct {
	mu        sync.Mutex
	admins    [][]string
	submitted []domain.Listing
	published []uint
}

func (f *fakeMailer) ListingSubmitted(admins []string, l domain.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins = append(f.admins, admins)
	f.submitted = append(f.submitted, l)
}

func (f *fakeMailer) ListingPublished(_ string, id uint, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
}

var (
	adminCaller = domain.Caller{Email: "admin@ecosol.test", Role: domain.RoleAdmin}
	ana         = domain.Caller{Email: "ana@ecosol.test", Role: domain.RoleUser}
	bia         = domain.Caller{Email: "bia@ecosol.test", Role: domain.RoleUser}
)

type env struct {
	mgr      *service.Manager
	users    *service.UserService
	authz    *service.Authorizer
	notes    *service.NotificationService
	listings *repo.ListingRepo
	mailer   *fakeMailer
	mr       *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.Open(t)
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	userRepo := repo.NewUserRepo(db)
	listingRepo := repo.NewListingRepo(db)
	mailer := &fakeMailer{}
	e := &env{
		mgr: service.NewManager(service.ManagerOptions{
			Listings: listingRepo, Users: userRepo, Cache: c, Mailer: mailer, Log: zap.NewNop(),
		}),
		users:    service.NewUserService(userRepo, zap.NewNop()),
		authz:    service.NewAuthorizer(userRepo),
		notes:    service.NewNotificationService(repo.NewNotificationRepo(db), listingRepo, zap.NewNop()),
		listings: listingRepo,
		mailer:   mailer,
		mr:       mr,
	}

	ctx := context.Background()
	for _, who := range []domain.Caller{adminCaller, ana, bia} {
		_, err := e.users.EnsureUser(ctx, who.Email)
		require.NoError(t, err)
	}
	require.NoError(t, e.users.SetRole(ctx, adminCaller.Email, domain.RoleAdmin))
	return e
}

// submit 以 owner 身份提交一条，返回 id
func (e *env) submit(t *testing.T, owner domain.Caller, name, category string) uint {
	t.Helper()
	l, err := e.mgr.Submit(context.Background(), owner, domain.ListingContent{Name: name, Category: category})
	require.NoError(t, err)
	return l.ID
}

// published 提交并审核通过
func (e *env) published(t *testing.T, owner domain.Caller, name, category string) uint {
	t.Helper()
	id := e.submit(t, owner, name, category)
	res := e.mgr.Approve(context.Background(), adminCaller, []uint{id})
	require.True(t, res.Success, res.Message)
	return id
}

func (e *env) get(t *testing.T, id uint) *domain.Listing {
	t.Helper()
	l, err := e.listings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return l
}
