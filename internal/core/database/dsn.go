package database

import (
	"fmt"
	"net/url"
	"strings"
)

// JDBC/Navicat 导出的参数 → go-sql-driver 参数；空值表示直接丢弃
var jdbcParams = map[string]string{
	"characterEncoding":    "charset",
	"serverTimezone":       "loc",
	"useUnicode":           "",
	"zeroDateTimeBehavior": "",
}

var useSSLToTLS = map[string]string{
	"true":        "true",
	"1":           "true",
	"skip-verify": "skip-verify",
	"preferred":   "preferred",
}

// normalizeMySQLDSN 把 mysql:// 或 jdbc:mysql:// 形式改写成 user:pass@tcp(host)/db?...
// 原生 DSN 原样返回
func normalizeMySQLDSN(input, user, pass string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in
	}

	q := u.Query()
	urlUser, urlPass := credentials(u, q)
	user, pass = firstNonEmpty(user, urlUser), firstNonEmpty(pass, urlPass)

	for from, to := range jdbcParams {
		v := q.Get(from)
		q.Del(from)
		if to != "" && v != "" && q.Get(to) == "" {
			q.Set(to, v)
		}
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		q.Del("useSSL")
		tls, ok := useSSLToTLS[v]
		if !ok {
			tls = "false"
		}
		q.Set("tls", tls)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

// postgresDSN 对 URL 形式注入账号；key=value 形式只在缺少时追加
func postgresDSN(input, user, pass string) string {
	in := strings.TrimSpace(input)
	if strings.HasPrefix(in, "postgres://") || strings.HasPrefix(in, "postgresql://") {
		u, err := url.Parse(in)
		if err != nil || (user == "" && pass == "") {
			return in
		}
		urlUser, urlPass := credentials(u, url.Values{})
		u.User = url.UserPassword(firstNonEmpty(user, urlUser), firstNonEmpty(pass, urlPass))
		return u.String()
	}
	if user != "" && !strings.Contains(in, "user=") {
		in += " user=" + user
	}
	if pass != "" && !strings.Contains(in, "password=") {
		in += " password=" + pass
	}
	return strings.TrimSpace(in)
}

// credentials 先取 userinfo，再让 query 里的 user/password 覆盖，并从 q 中移除
func credentials(u *url.URL, q url.Values) (user, pass string) {
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	if v := q.Get("user"); v != "" {
		user = v
	}
	if v := q.Get("password"); v != "" {
		pass = v
	}
	q.Del("user")
	q.Del("password")
	return user, pass
}

// maskDSN 隐去密码，只用于日志
func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	if i := strings.Index(dsn, "password="); i >= 0 {
		end := strings.IndexByte(dsn[i:], ' ')
		if end < 0 {
			return dsn[:i] + "password=xxxxx"
		}
		return dsn[:i] + "password=xxxxx" + dsn[i+end:]
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "xxxxx" + dsn[at:]
		}
	}
	return dsn
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
