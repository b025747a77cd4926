package checkup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/hazz-dev/infracheck/internal/redact"
	"github.com/hazz-dev/infracheck/internal/target"
)

// databaseEnvVars lists the alias variable pairs checked per engine, in
// priority order.
var databaseEnvVars = map[string][]target.EnvPair{
	"postgres": {
		{Public: "DATABASE_URL", Private: "DATABASE_PRIVATE_URL"},
		{Public: "POSTGRES_URL", Private: "POSTGRES_PRIVATE_URL"},
		{Public: "PG_URL", Private: "PG_PRIVATE_URL"},
	},
	"mysql": {
		{Public: "MYSQL_URL", Private: "MYSQL_PRIVATE_URL"},
		{Public: "MYSQL_DATABASE_URL", Private: "MYSQL_DATABASE_PRIVATE_URL"},
	},
	"mongo": {
		{Public: "MONGODB_URI", Private: "MONGODB_PRIVATE_URI"},
		{Public: "MONGODB_URL", Private: "MONGODB_PRIVATE_URL"},
		{Public: "MONGO_URL", Private: "MONGO_PRIVATE_URL"},
	},
}

var databaseEngines = []string{"postgres", "mysql", "mongo"}

// DatabaseRunner validates relational and document databases. With an empty
// engine it probes every engine that has a connection URL configured.
type DatabaseRunner struct {
	opts   Options
	engine string
}

// NewDatabaseRunner returns the database runner. engine may be "postgres",
// "mysql", "mongo", or empty for all configured engines.
func NewDatabaseRunner(opts Options, engine string) *DatabaseRunner {
	return &DatabaseRunner{opts: opts, engine: engine}
}

func (r *DatabaseRunner) System() string { return "database" }

func (r *DatabaseRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	engines := databaseEngines
	if r.engine != "" {
		engines = []string{r.engine}
	}

	if r.opts.Resolver.InVPC() {
		rep.Info("VPC detected - preferring private URLs")
	} else {
		rep.Info("no VPC interface - using public URLs")
	}

	configured := false
	for _, engine := range engines {
		t, source, err := r.opts.Resolver.ResolveFirst(databaseEnvVars[engine])
		if errors.Is(err, target.ErrUnconfigured) {
			continue
		}
		if err != nil {
			configured = true
			suite.add(engineLabel(engine)+" URL", false, err.Error())
			continue
		}
		if detected := engineForScheme(t.Scheme); detected != "" && detected != engine {
			// The alias held a URL for a different engine; skip it here,
			// that engine's own alias walk will pick it up.
			continue
		}
		configured = true
		rep.Info("found %s URL in %s", engineLabel(engine), source)

		switch engine {
		case "postgres":
			r.probePostgres(ctx, &suite, t)
		case "mysql":
			r.probeMySQL(ctx, &suite, t)
		case "mongo":
			r.probeMongo(ctx, &suite, t)
		}
	}

	if !configured {
		suite.Skipped = true
		suite.SkipReason = "no database URL configured (DATABASE_URL, MYSQL_URL, MONGODB_URI, ...)"
	}
	return suite
}

func engineLabel(engine string) string {
	switch engine {
	case "postgres":
		return "PostgreSQL"
	case "mysql":
		return "MySQL"
	case "mongo":
		return "MongoDB"
	}
	return engine
}

func engineForScheme(scheme string) string {
	switch scheme {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "mongodb", "mongodb+srv":
		return "mongo"
	}
	return ""
}

func (r *DatabaseRunner) probePostgres(ctx context.Context, suite *Suite, t *target.ConnectionTarget) {
	rep := r.opts.reporter()
	rep.Info("host: %s:%d  database: %s  user: %s  password: %s",
		t.Host, t.Port, t.Database, t.Username, redact.MaskSecret(t.Password, 4))

	ok, msg := TCPProbe(ctx, t.Host, t.Port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("PostgreSQL TCP", ok, msg) {
		return
	}

	db, err := sql.Open("postgres", t.Raw)
	if err != nil {
		suite.add("PostgreSQL Connection", false, err.Error())
		rep.Check("Connection", false, err.Error())
		return
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	dctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	if err := db.PingContext(dctx); err != nil {
		msg := err.Error()
		suite.add("PostgreSQL Connection", false, msg)
		rep.Check("Connection", false, msg)
		r.hintPostgres(msg)
		return
	}
	suite.add("PostgreSQL Connection", true, "connected successfully")
	rep.Check("Connection", true, "")

	r.sqlProbes(ctx, suite, db, sqlFlavor{
		label:        "PostgreSQL",
		versionQuery: "SELECT version()",
		createCols:   "(id SERIAL PRIMARY KEY, val TEXT)",
	})
}

func (r *DatabaseRunner) probeMySQL(ctx context.Context, suite *Suite, t *target.ConnectionTarget) {
	rep := r.opts.reporter()
	rep.Info("host: %s:%d  database: %s  user: %s  password: %s",
		t.Host, t.Port, t.Database, t.Username, redact.MaskSecret(t.Password, 4))

	ok, msg := TCPProbe(ctx, t.Host, t.Port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("MySQL TCP", ok, msg) {
		return
	}

	dsn := MySQLDSN(t, r.opts.Timeouts.Driver.Duration)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		suite.add("MySQL Connection", false, err.Error())
		rep.Check("Connection", false, err.Error())
		return
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	dctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	if err := db.PingContext(dctx); err != nil {
		msg := err.Error()
		suite.add("MySQL Connection", false, msg)
		rep.Check("Connection", false, msg)
		if strings.Contains(msg, "Access denied") {
			rep.Warn("check username/password or trusted-source firewall rules")
		}
		return
	}
	suite.add("MySQL Connection", true, "connected successfully")
	rep.Check("Connection", true, "")

	r.sqlProbes(ctx, suite, db, sqlFlavor{
		label:        "MySQL",
		versionQuery: "SELECT VERSION()",
		createCols:   "(id INT AUTO_INCREMENT PRIMARY KEY, val VARCHAR(255))",
	})
}

func (r *DatabaseRunner) hintPostgres(errMsg string) {
	rep := r.opts.reporter()
	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(errMsg, "no pg_hba.conf entry") || strings.Contains(lower, "not allowed"):
		rep.Warn("check trusted-source firewall rules - your IP may not be allowlisted")
	case strings.Contains(lower, "connection refused"):
		rep.Warn("database may be down or a firewall is blocking access")
	case strings.Contains(lower, "password authentication failed"):
		rep.Warn("check username/password credentials")
	}
}

// sqlFlavor captures the engine-specific pieces of the shared write probe.
type sqlFlavor struct {
	label        string
	versionQuery string
	createCols   string
}

// sqlProbes runs the read probe and the reversible write sequence against an
// open connection. The throwaway table is dropped even when a step in the
// middle fails.
func (r *DatabaseRunner) sqlProbes(ctx context.Context, suite *Suite, db *sql.DB, f sqlFlavor) {
	rep := r.opts.reporter()

	qctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()

	var version string
	if err := db.QueryRowContext(qctx, f.versionQuery).Scan(&version); err != nil {
		suite.add(f.label+" Query", false, err.Error())
		rep.Check("Query (SELECT)", false, err.Error())
		return
	}
	if len(version) > 60 {
		version = version[:60] + "..."
	}
	suite.add(f.label+" Query", true, version)
	rep.Check("Query (SELECT)", true, version)

	table := probeResourceName()
	defer func() {
		// Cleanup runs regardless of how far the write probe got.
		cctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		if _, err := db.ExecContext(cctx, "DROP TABLE IF EXISTS "+table); err != nil {
			rep.Warn("cleanup failed, table %s left behind: %v", table, err)
			return
		}
		rep.Check("Cleanup", true, "dropped probe table")
	}()

	steps := []struct {
		record string
		label  string
		stmt   string
	}{
		{f.label + " CREATE", "CREATE TABLE", "CREATE TABLE " + table + " " + f.createCols},
		{f.label + " INSERT", "INSERT", "INSERT INTO " + table + " (val) VALUES ('probe')"},
		{f.label + " SELECT", "SELECT", "SELECT val FROM " + table},
		{f.label + " UPDATE", "UPDATE", "UPDATE " + table + " SET val = 'updated' WHERE id = 1"},
		{f.label + " DELETE", "DELETE", "DELETE FROM " + table + " WHERE id = 1"},
	}
	for _, step := range steps {
		sctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
		_, err := db.ExecContext(sctx, step.stmt)
		cancel()
		if err != nil {
			suite.add(step.record, false, err.Error())
			rep.Check(step.label, false, err.Error())
			return
		}
		suite.add(step.record, true, "")
		rep.Check(step.label, true, "")
	}
}

func probeResourceName() string {
	return fmt.Sprintf("_infracheck_probe_%s", shortID())
}
