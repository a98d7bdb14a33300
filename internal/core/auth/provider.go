package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"ecosol/internal/domain"
	"ecosol/pkg/utils"
)

// Session 一次校验/登录的结果；Cookies 需要同时写回请求与响应
type Session struct {
	Identity *domain.Identity
	Cookies  []*http.Cookie
}

// ResetNotifier 发送重置密码链接（通常异步发邮件）
type ResetNotifier func(ctx context.Context, email, token string)

type Options struct {
	Accounts      domain.AccountRepository
	JWT           *JWTer
	Tokens        *TokenStore
	Cookies       CookieConfig
	RefreshTTL    time.Duration
	RefreshWindow time.Duration
	OnReset       ResetNotifier
	Log           *zap.Logger
	Now           func() time.Time
}

// Provider 内置身份提供方：账号、access/refresh token、重置密码
type Provider struct {
	accounts   domain.AccountRepository
	jwt        *JWTer
	tokens     *TokenStore
	cookies    CookieConfig
	refreshTTL time.Duration
	window     time.Duration
	onReset    ResetNotifier
	log        *zap.Logger
	now        func() time.Time
}

func NewProvider(o Options) *Provider {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.OnReset == nil {
		o.OnReset = func(context.Context, string, string) {}
	}
	if o.JWT.Now == nil {
		o.JWT.Now = o.Now
	}
	return &Provider{
		accounts: o.Accounts, jwt: o.JWT, tokens: o.Tokens, cookies: o.Cookies,
		refreshTTL: o.RefreshTTL, window: o.RefreshWindow,
		onReset: o.OnReset, log: o.Log, now: o.Now,
	}
}

// ValidateAndRefresh 校验请求 cookie；必要时轮换 refresh token 并返回新的 cookie
func (p *Provider) ValidateAndRefresh(ctx context.Context, cookies []*http.Cookie) (Session, error) {
	access := cookieValue(cookies, AccessCookie)
	refresh := cookieValue(cookies, RefreshCookie)

	var claims *Claims
	if access != "" {
		if c, err := p.jwt.Parse(access); err == nil {
			claims = c
		}
	}
	if claims != nil && claims.ExpiresAt.Sub(p.now()) > p.window {
		return Session{Identity: identityOf(claims)}, nil
	}

	if refresh == "" {
		if claims != nil {
			return Session{Identity: identityOf(claims)}, nil
		}
		if access != "" {
			return Session{Cookies: []*http.Cookie{p.cookies.clear(AccessCookie)}}, nil
		}
		return Session{}, nil
	}

	s, err := p.rotate(ctx, refresh)
	if claims != nil && (err != nil || s.Identity == nil) {
		// access token 仍有效：refresh token 可能已被并行请求轮换掉，本次不刷新也不清 cookie
		if err != nil {
			p.log.Warn("refresh rotation failed", zap.String("account", claims.Subject), zap.Error(err))
		}
		return Session{Identity: identityOf(claims)}, nil
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

func (p *Provider) rotate(ctx context.Context, refresh string) (Session, error) {
	id, err := p.tokens.ConsumeRefresh(ctx, refresh)
	if err != nil {
		return Session{}, domain.Upstream("consume refresh token", err)
	}
	if id == "" {
		return Session{Cookies: p.cookies.clearAll()}, nil
	}
	acct, err := p.accounts.FindByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if acct == nil {
		return Session{Cookies: p.cookies.clearAll()}, nil
	}
	return p.issue(ctx, acct)
}

func (p *Provider) issue(ctx context.Context, acct *domain.Account) (Session, error) {
	access, exp, err := p.jwt.Issue(acct.ID, acct.Email)
	if err != nil {
		return Session{}, domain.Upstream("sign access token", err)
	}
	refresh, err := p.tokens.IssueRefresh(ctx, acct.ID)
	if err != nil {
		return Session{}, domain.Upstream("issue refresh token", err)
	}
	return Session{
		Identity: &domain.Identity{ID: acct.ID, Email: acct.Email},
		Cookies: []*http.Cookie{
			p.cookies.set(AccessCookie, access, exp.Sub(p.now())),
			p.cookies.set(RefreshCookie, refresh, p.refreshTTL),
		},
	}, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := validEmail(email)
	if err != nil {
		return Session{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return Session{}, err
	}
	acct := &domain.Account{ID: utils.NewID(), Email: email, PasswordHash: hash}
	if err := p.accounts.Create(ctx, acct); err != nil {
		return Session{}, err
	}
	p.log.Info("account created", zap.String("email", email))
	return p.issue(ctx, acct)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, error) {
	acct, err := p.accounts.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return Session{}, err
	}
	if acct == nil || !utils.CheckPassword(password, acct.PasswordHash) {
		return Session{}, domain.Unauthenticated("invalid email or password")
	}
	return p.issue(ctx, acct)
}

// SignOut 作废 refresh token 并清 cookie；Redis 失败也照样清
func (p *Provider) SignOut(ctx context.Context, cookies []*http.Cookie) []*http.Cookie {
	if refresh := cookieValue(cookies, RefreshCookie); refresh != "" {
		if _, err := p.tokens.ConsumeRefresh(ctx, refresh); err != nil {
			p.log.Warn("revoke refresh token", zap.Error(err))
		}
	}
	return p.cookies.clearAll()
}

// RequestPasswordReset 邮箱不存在时同样返回 nil，避免探测账号
func (p *Provider) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := p.accounts.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if acct == nil {
		return nil
	}
	tok, err := p.tokens.IssueReset(ctx, acct.ID)
	if err != nil {
		return domain.Upstream("issue reset token", err)
	}
	p.onReset(ctx, acct.Email, tok)
	return nil
}

func (p *Provider) ResetPassword(ctx context.Context, token, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	id, err := p.tokens.ConsumeReset(ctx, token)
	if err != nil {
		return domain.Upstream("consume reset token", err)
	}
	if id == "" {
		return domain.Invalid("reset link is invalid or expired")
	}
	if err := p.accounts.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	if err := p.tokens.RevokeAll(ctx, id); err != nil {
		return domain.Upstream("revoke sessions", err)
	}
	return nil
}

func identityOf(c *Claims) *domain.Identity {
	return &domain.Identity{ID: c.Subject, Email: c.Email}
}

func validEmail(s string) (string, error) {
	s = domain.NormalizeEmail(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", domain.Invalid("invalid email")
	}
	return s, nil
}

func hashPassword(pw string) (string, error) {
	hash, err := utils.HashPassword(pw)
	if errors.Is(err, utils.ErrWeakPassword) {
		return "", domain.Invalid(err.Error())
	}
	if err != nil {
		return "", domain.Invalid("invalid password")
	}
	return hash, nil
}
