package db

import (
	"net/url"
	"strings"

	"github.com/diewo77/icash/internal/config"
)

// BuildDSN resolves the postgres DSN for the given config. An explicit
// DATABASE_DSN wins; otherwise the URL is assembled from the discrete
// DB_HOST/DB_NAME/DB_USER/DB_PASS parts.
func BuildDSN(cfg config.Config) string {
	if dsn := NormalizeDSN(cfg.DatabaseDSN); dsn != "" {
		return dsn
	}
	if cfg.DBName == "" || cfg.DBUser == "" {
		return ""
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   cfg.DBHost,
		User:   url.UserPassword(cfg.DBUser, cfg.DBPass),
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

// NormalizeDSN trims quotes and whitespace from a URL style DSN and, if given
// a lib/pq key=value list, ensures sslmode is present (default disable).
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !strings.Contains(s, "=") {
		// not key=value form; hand it to the driver unchanged
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// MaskDSN hides the password portion for diagnostics output.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			return u.Redacted()
		}
	}
	if i := strings.Index(dsn, "password="); i >= 0 {
		end := strings.IndexByte(dsn[i:], ' ')
		if end < 0 {
			return dsn[:i] + "password=***"
		}
		return dsn[:i] + "password=***" + dsn[i+end:]
	}
	return dsn
}
