package checkup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hazz-dev/infracheck/internal/redact"
	"github.com/hazz-dev/infracheck/internal/target"
)

var cacheEnvVars = []target.EnvPair{
	{Public: "REDIS_URL", Private: "REDIS_PRIVATE_URL"},
	{Public: "VALKEY_URL", Private: "VALKEY_PRIVATE_URL"},
	{Public: "CACHE_URL", Private: "CACHE_PRIVATE_URL"},
}

// CacheRunner validates Redis/Valkey connectivity and key operations.
type CacheRunner struct {
	opts Options
}

func NewCacheRunner(opts Options) *CacheRunner {
	return &CacheRunner{opts: opts}
}

func (r *CacheRunner) System() string { return "cache" }

func (r *CacheRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	t, source, err := r.opts.Resolver.ResolveFirst(cacheEnvVars)
	if errors.Is(err, target.ErrUnconfigured) {
		suite.Skipped = true
		suite.SkipReason = "no cache URL configured (REDIS_URL, VALKEY_URL, CACHE_URL)"
		return suite
	}
	if err != nil {
		suite.add("Redis URL", false, err.Error())
		rep.Check("URL", false, err.Error())
		return suite
	}
	rep.Info("found cache URL in %s", source)

	tlsState := "disabled"
	if t.Scheme == "rediss" {
		tlsState = "enabled"
	}
	rep.Info("host: %s:%d  TLS: %s", t.Host, t.Port, tlsState)
	if t.Password != "" {
		rep.Info("password: %s", redact.MaskSecret(t.Password, 4))
	}

	ok, msg := TCPProbe(ctx, t.Host, t.Port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("Redis TCP", ok, msg) {
		return suite
	}

	redisOpts, err := redis.ParseURL(t.Raw)
	if err != nil {
		suite.add("Redis URL", false, err.Error())
		rep.Check("URL", false, err.Error())
		return suite
	}
	redisOpts.DialTimeout = r.opts.Timeouts.Driver.Duration
	redisOpts.ReadTimeout = r.opts.Timeouts.Driver.Duration
	redisOpts.WriteTimeout = r.opts.Timeouts.Driver.Duration
	if redisOpts.TLSConfig != nil {
		// Managed endpoints present certs that may not match the private
		// hostname.
		redisOpts.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(redisOpts)
	defer client.Close()

	r.probe(ctx, &suite, client)
	return suite
}

// probe runs the ping/read/write sequence against a connected client. Split
// out so tests can drive it against an in-process server.
func (r *CacheRunner) probe(ctx context.Context, suite *Suite, client *redis.Client) {
	rep := r.opts.reporter()

	pctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		msg := err.Error()
		suite.add("Redis PING", false, msg)
		rep.Check("PING", false, msg)
		r.hint(msg)
		return
	}
	suite.add("Redis PING", true, "PONG received")
	rep.Check("PING", true, "")

	// Version is informational only.
	if info, err := client.Info(pctx, "server").Result(); err == nil {
		if v := redisInfoField(info, "redis_version"); v != "" {
			suite.add("Redis Server", true, "version: "+v)
			rep.Check("Server Info", true, "version: "+v)
		}
	}

	key := "_infracheck_probe_" + shortID()
	const value = "probe_value_12345"

	defer func() {
		cctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		client.Del(cctx, key)
		if err := client.Get(cctx, key).Err(); errors.Is(err, redis.Nil) {
			rep.Check("Cleanup", true, "probe key removed")
		}
	}()

	if err := client.Set(pctx, key, value, 60*time.Second).Err(); err != nil {
		suite.add("Redis SET", false, err.Error())
		rep.Check("SET", false, err.Error())
		r.hint(err.Error())
		return
	}
	suite.add("Redis SET", true, "set probe key with 60s expiry")
	rep.Check("SET", true, "")

	got, err := client.Get(pctx, key).Result()
	switch {
	case err != nil:
		suite.add("Redis GET", false, err.Error())
		rep.Check("GET", false, err.Error())
		return
	case got != value:
		suite.add("Redis GET", false, "value mismatch")
		rep.Check("GET", false, "value mismatch")
		return
	}
	suite.add("Redis GET", true, "retrieved correct value")
	rep.Check("GET", true, "")

	if err := client.Del(pctx, key).Err(); err != nil {
		suite.add("Redis DELETE", false, err.Error())
		rep.Check("DELETE", false, err.Error())
		return
	}
	suite.add("Redis DELETE", true, "deleted probe key")
	rep.Check("DELETE", true, "")
}

func (r *CacheRunner) hint(errMsg string) {
	rep := r.opts.reporter()
	switch {
	case strings.Contains(errMsg, "NOAUTH") || containsFold(errMsg, "authentication"):
		rep.Warn("authentication required - check the URL includes a password")
	case strings.Contains(errMsg, "READONLY"):
		rep.Warn("connected to a read-only replica")
	case containsFold(errMsg, "connection refused"):
		rep.Warn("check the cache is running and firewall rules")
	case containsFold(errMsg, "timeout"):
		rep.Warn("check network connectivity and trusted-source rules")
	}
}

func redisInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\n") {
		if rest, found := strings.CutPrefix(strings.TrimSpace(line), field+":"); found {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
