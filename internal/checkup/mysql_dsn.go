package checkup

import (
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/hazz-dev/infracheck/internal/target"
)

// MySQLDSN converts a parsed mysql:// URL into the driver DSN form. Managed
// platforms hand out URLs with ssl-mode=REQUIRED; the driver wants a tls
// parameter instead, and managed endpoints present certs that fail hostname
// verification, so REQUIRED maps to skip-verify.
func MySQLDSN(t *target.ConnectionTarget, timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = t.Username
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = t.Addr()
	cfg.DBName = t.Database
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout

	mode := t.Params["ssl-mode"]
	if mode == "" {
		mode = t.Params["sslmode"]
	}
	switch strings.ToUpper(mode) {
	case "REQUIRED", "VERIFY_CA", "VERIFY_IDENTITY", "REQUIRE":
		cfg.TLSConfig = "skip-verify"
	}

	return cfg.FormatDSN()
}

// shortID returns an 8-character hex token for throwaway resource names.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
