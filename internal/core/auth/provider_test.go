package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecosol/internal/domain"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*domain.Account
}

func newMemAccounts() *memAccounts { return &memAccounts{byID: map[string]*domain.Account{}} }

func (m *memAccounts) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == a.Email {
			return domain.Conflict("email already registered")
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x, ok := m.byID[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return domain.NotFound("account not found")
	}
	x.PasswordHash = hash
	return nil
}

type fixture struct {
	p      *Provider
	mr     *miniredis.Miniredis
	clock  time.Time
	resets map[string]string
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{mr: mr, clock: time.Now().Truncate(time.Second), resets: map[string]string{}}
	f.p = NewProvider(Options{
		Accounts:      newMemAccounts(),
		JWT:           &JWTer{Secret: []byte("test-secret-0123456789"), Issuer: "ecosol", TTL: time.Hour},
		Tokens:        NewTokenStore(rdb, 24*time.Hour, 30*time.Minute),
		RefreshTTL:    24 * time.Hour,
		RefreshWindow: 5 * time.Minute,
		OnReset:       func(_ context.Context, email, tok string) { f.resets[email] = tok },
		Now:           func() time.Time { return f.clock },
	})
	return f
}

func find(cs []*http.Cookie, name string) *http.Cookie {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignUpThenValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.p.SignUp(ctx, "  Ana@Example.com ", "segredo123")
	require.NoError(t, err)
	require.NotNil(t, s.Identity)
	assert.Equal(t, "ana@example.com", s.Identity.Email)
	require.Len(t, s.Cookies, 2)
	access := find(s.Cookies, AccessCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, 3600, access.MaxAge)

	got, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, got.Identity)
	assert.Equal(t, s.Identity.ID, got.Identity.ID)
	assert.Empty(t, got.Cookies)
}

func TestNearExpiryRotatesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)
	oldRefresh := find(s.Cookies, RefreshCookie).Value

	f.advance(58 * time.Minute)
	got, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, got.Identity)
	require.Len(t, got.Cookies, 2)
	assert.NotEqual(t, oldRefresh, find(got.Cookies, RefreshCookie).Value)
	assert.False(t, f.mr.Exists(refreshPrefix+oldRefresh))

	// 旧 refresh token 只能用一次
	f.advance(2 * time.Hour)
	again, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	assert.Nil(t, again.Identity)
	assert.Equal(t, -1, find(again.Cookies, RefreshCookie).MaxAge)
}

func TestParallelRefreshKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)

	// 两个请求带着同一组 cookie，access token 都落在刷新窗口内
	f.advance(56 * time.Minute)
	first, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, first.Identity)
	require.Len(t, first.Cookies, 2)

	second, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, second.Identity)
	assert.Equal(t, s.Identity.ID, second.Identity.ID)
	assert.Empty(t, second.Cookies)

	// 第一个请求拿到的新 cookie 继续可用
	third, err := f.p.ValidateAndRefresh(ctx, first.Cookies)
	require.NoError(t, err)
	require.NotNil(t, third.Identity)
	assert.Empty(t, third.Cookies)
}

func TestExpiredAccessWithoutRefreshClearsCookie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	got, err := f.p.ValidateAndRefresh(ctx, []*http.Cookie{find(s.Cookies, AccessCookie)})
	require.NoError(t, err)
	assert.Nil(t, got.Identity)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, AccessCookie, got.Cookies[0].Name)
	assert.Equal(t, -1, got.Cookies[0].MaxAge)
}

func TestNoCookiesIsAnonymous(t *testing.T) {
	f := newFixture(t)
	got, err := f.p.ValidateAndRefresh(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got.Identity)
	assert.Empty(t, got.Cookies)
}

func TestRedisDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)
	f.mr.Close()

	// access token 仍然有效，不需要 Redis
	got, err := f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, got.Identity)

	// 接近过期但轮换失败，沿用当前身份
	f.advance(58 * time.Minute)
	got, err = f.p.ValidateAndRefresh(ctx, s.Cookies)
	require.NoError(t, err)
	require.NotNil(t, got.Identity)
	assert.Empty(t, got.Cookies)

	f.advance(time.Hour)
	_, err = f.p.ValidateAndRefresh(ctx, s.Cookies)
	assert.True(t, domain.Is(err, domain.KindUpstream))
}

func TestSignInAndSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)

	_, err = f.p.SignIn(ctx, "ana@example.com", "errado123")
	assert.True(t, domain.Is(err, domain.KindUnauthenticated))
	_, err = f.p.SignIn(ctx, "nobody@example.com", "segredo123")
	assert.True(t, domain.Is(err, domain.KindUnauthenticated))

	s, err := f.p.SignIn(ctx, "ANA@example.com", "segredo123")
	require.NoError(t, err)
	refresh := find(s.Cookies, RefreshCookie).Value
	require.True(t, f.mr.Exists(refreshPrefix+refresh))

	cleared := f.p.SignOut(ctx, s.Cookies)
	assert.False(t, f.mr.Exists(refreshPrefix+refresh))
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.SignUp(ctx, "not-an-email", "segredo123")
	assert.True(t, domain.Is(err, domain.KindValidation))
	_, err = f.p.SignUp(ctx, "ana@example.com", "curta")
	assert.True(t, domain.Is(err, domain.KindValidation))

	_, err = f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)
	_, err = f.p.SignUp(ctx, "ana@example.com", "outrasenha1")
	assert.True(t, domain.Is(err, domain.KindConflict))
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.p.SignUp(ctx, "ana@example.com", "segredo123")
	require.NoError(t, err)

	require.NoError(t, f.p.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, f.resets)

	require.NoError(t, f.p.RequestPasswordReset(ctx, "ana@example.com"))
	tok := f.resets["ana@example.com"]
	require.NotEmpty(t, tok)
	assert.Equal(t, 30*time.Minute, f.mr.TTL(passwordResetPrefix+tok))

	require.NoError(t, f.p.ResetPassword(ctx, tok, "novasenha1"))
	err = f.p.ResetPassword(ctx, tok, "novasenha2")
	assert.True(t, domain.Is(err, domain.KindValidation))

	_, err = f.p.SignIn(ctx, "ana@example.com", "segredo123")
	assert.True(t, domain.Is(err, domain.KindUnauthenticated))
	_, err = f.p.SignIn(ctx, "ana@example.com", "novasenha1")
	require.NoError(t, err)

	// 旧会话的 refresh token 已失效
	assert.False(t, f.mr.Exists(refreshPrefix+find(s.Cookies, RefreshCookie).Value))
}

func TestJWTRejectsForeignIssuer(t *testing.T) {
	a := &JWTer{Secret: []byte("k"), Issuer: "a", TTL: time.Minute}
	b := &JWTer{Secret: []byte("k"), Issuer: "b", TTL: time.Minute}
	tok, _, err := a.Issue("id1", "x@example.com")
	require.NoError(t, err)
	_, err = b.Parse(tok)
	assert.Error(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "id1", c.Subject)
}
