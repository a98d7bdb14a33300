package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "ecosol-access"
	RefreshCookie = "ecosol-refresh"
)

type CookieConfig struct {
	Domain string
	Secure bool
}

func (c CookieConfig) set(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// clear MaxAge<0 让浏览器立即删除
func (c CookieConfig) clear(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) clearAll() []*http.Cookie {
	return []*http.Cookie{c.clear(AccessCookie), c.clear(RefreshCookie)}
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
