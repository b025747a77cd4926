package checkup

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/hazz-dev/infracheck/internal/redact"
	"github.com/hazz-dev/infracheck/internal/target"
)

const defaultOpenSearchPort = 25060

// OpenSearchConfig holds the cluster endpoint and credentials, assembled from
// either a full URL or individual host/port/credential variables.
type OpenSearchConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// LoadOpenSearchConfig resolves the cluster settings. Returns
// target.ErrUnconfigured when neither the URL nor the host variable is set.
func LoadOpenSearchConfig(resolver *target.Resolver) (*OpenSearchConfig, error) {
	raw, err := resolver.Lookup("OPENSEARCH_URL", "OPENSEARCH_PRIVATE_URL")
	if err == nil {
		t, err := target.ParseURL(raw)
		if err != nil {
			return nil, err
		}
		cfg := &OpenSearchConfig{
			Host:     t.Host,
			Port:     t.Port,
			Username: t.Username,
			Password: t.Password,
			UseTLS:   t.Scheme == "https",
		}
		if cfg.Port == 0 {
			cfg.Port = defaultOpenSearchPort
		}
		if cfg.Username == "" {
			cfg.Username = "doadmin"
		}
		return cfg, nil
	}
	if !errors.Is(err, target.ErrUnconfigured) {
		return nil, err
	}

	host := firstEnv("OPENSEARCH_HOST", "OPENSEARCH_HOSTNAME")
	if host == "" {
		return nil, target.ErrUnconfigured
	}
	port := defaultOpenSearchPort
	if p := os.Getenv("OPENSEARCH_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	username := os.Getenv("OPENSEARCH_USERNAME")
	if username == "" {
		username = "doadmin"
	}
	return &OpenSearchConfig{
		Host:     host,
		Port:     port,
		Username: username,
		Password: os.Getenv("OPENSEARCH_PASSWORD"),
		UseTLS:   true,
	}, nil
}

// Address returns the cluster URL.
func (c *OpenSearchConfig) Address() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// OpenSearchRunner validates search-cluster connectivity, health, and index
// operations.
type OpenSearchRunner struct {
	opts Options
}

func NewOpenSearchRunner(opts Options) *OpenSearchRunner {
	return &OpenSearchRunner{opts: opts}
}

func (r *OpenSearchRunner) System() string { return "opensearch" }

func (r *OpenSearchRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	cfg, err := LoadOpenSearchConfig(r.opts.Resolver)
	if errors.Is(err, target.ErrUnconfigured) {
		suite.Skipped = true
		suite.SkipReason = "no cluster configured (OPENSEARCH_URL or OPENSEARCH_HOST+OPENSEARCH_PORT)"
		return suite
	}
	if err != nil {
		suite.add("OpenSearch URL", false, err.Error())
		rep.Check("URL", false, err.Error())
		return suite
	}

	tlsState := "disabled"
	if cfg.UseTLS {
		tlsState = "enabled"
	}
	rep.Info("host: %s:%d  user: %s  password: %s  TLS: %s",
		cfg.Host, cfg.Port, cfg.Username, redact.MaskSecret(cfg.Password, 4), tlsState)

	ok, msg := TCPProbe(ctx, cfg.Host, cfg.Port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("OpenSearch TCP", ok, msg) {
		return suite
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.Address()},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	})
	if err != nil {
		suite.add("OpenSearch Connection", false, err.Error())
		rep.Check("Connection", false, err.Error())
		return suite
	}

	r.probe(ctx, &suite, client)
	return suite
}

func (r *OpenSearchRunner) probe(ctx context.Context, suite *Suite, client *opensearch.Client) {
	rep := r.opts.reporter()

	hctx, cancel := runCtx(ctx, r.opts.Timeouts.Heavy)
	defer cancel()

	res, err := client.Cluster.Health(client.Cluster.Health.WithContext(hctx))
	if err != nil {
		suite.add("OpenSearch Health", false, err.Error())
		rep.Check("Cluster Health", false, err.Error())
		return
	}
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		res.Body.Close()
		suite.add("OpenSearch Auth", false, "authentication failed")
		rep.Check("Authentication", false, fmt.Sprintf("HTTP %d", res.StatusCode))
		rep.Warn("check OPENSEARCH_USERNAME and OPENSEARCH_PASSWORD")
		return
	}
	var health struct {
		Status      string `json:"status"`
		ClusterName string `json:"cluster_name"`
	}
	err = json.NewDecoder(res.Body).Decode(&health)
	res.Body.Close()
	if err != nil {
		suite.add("OpenSearch Health", false, err.Error())
		rep.Check("Cluster Health", false, err.Error())
		return
	}
	// Yellow is normal on single-node managed clusters (no replica homes).
	healthy := health.Status == "green" || health.Status == "yellow"
	detail := fmt.Sprintf("status: %s, cluster: %s", health.Status, health.ClusterName)
	suite.add("OpenSearch Health", healthy, detail)
	rep.Check("Cluster Health", healthy, detail)
	if !healthy {
		return
	}

	if info, err := client.Info(client.Info.WithContext(hctx)); err == nil {
		var body struct {
			Version struct {
				Number string `json:"number"`
			} `json:"version"`
		}
		if json.NewDecoder(info.Body).Decode(&body) == nil && body.Version.Number != "" {
			suite.add("OpenSearch Version", true, "version: "+body.Version.Number)
			rep.Check("Server Info", true, "version: "+body.Version.Number)
		}
		info.Body.Close()
	}

	if res, err := client.Cat.Indices(
		client.Cat.Indices.WithContext(hctx),
		client.Cat.Indices.WithFormat("json"),
	); err == nil && !res.IsError() {
		var indices []json.RawMessage
		count := 0
		if json.NewDecoder(res.Body).Decode(&indices) == nil {
			count = len(indices)
		}
		res.Body.Close()
		suite.add("OpenSearch Indices", true, fmt.Sprintf("%d indices found", count))
		rep.Check("List Indices", true, fmt.Sprintf("%d indices", count))
	} else {
		detail := apiError(res, err)
		suite.add("OpenSearch Indices", false, detail)
		rep.Check("List Indices", false, detail)
	}

	r.indexProbe(ctx, suite, client)
}

// indexProbe creates a throwaway index, runs an index/search/delete sequence
// in it, and removes it even when a step fails.
func (r *OpenSearchRunner) indexProbe(ctx context.Context, suite *Suite, client *opensearch.Client) {
	rep := r.opts.reporter()
	index := probeResourceName()

	defer func() {
		cctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		res, err := client.Indices.Delete([]string{index},
			client.Indices.Delete.WithContext(cctx),
			client.Indices.Delete.WithIgnoreUnavailable(true))
		if err != nil {
			rep.Warn("cleanup failed, index %s left behind: %v", index, err)
			return
		}
		res.Body.Close()
		rep.Check("Cleanup", true, "deleted probe index")
	}()

	hctx, cancel := runCtx(ctx, r.opts.Timeouts.Heavy)
	defer cancel()

	body := `{"settings":{"number_of_shards":1,"number_of_replicas":0},"mappings":{"properties":{"probe_field":{"type":"text"}}}}`
	res, err := client.Indices.Create(index,
		client.Indices.Create.WithContext(hctx),
		client.Indices.Create.WithBody(strings.NewReader(body)))
	if err != nil || res.IsError() {
		detail := apiError(res, err)
		suite.add("OpenSearch CREATE", false, detail)
		rep.Check("CREATE Index", false, detail)
		return
	}
	res.Body.Close()
	suite.add("OpenSearch CREATE", true, "created index "+index)
	rep.Check("CREATE Index", true, "")

	res, err = client.Index(index, strings.NewReader(`{"probe_field":"probe_value"}`),
		client.Index.WithContext(hctx),
		client.Index.WithRefresh("true"))
	if err != nil || res.IsError() {
		detail := apiError(res, err)
		suite.add("OpenSearch INDEX", false, detail)
		rep.Check("INDEX Document", false, detail)
		return
	}
	var indexed struct {
		ID string `json:"_id"`
	}
	json.NewDecoder(res.Body).Decode(&indexed)
	res.Body.Close()
	suite.add("OpenSearch INDEX", true, "indexed document")
	rep.Check("INDEX Document", true, "")

	res, err = client.Search(
		client.Search.WithContext(hctx),
		client.Search.WithIndex(index),
		client.Search.WithBody(strings.NewReader(`{"query":{"match_all":{}}}`)))
	if err != nil || res.IsError() {
		detail := apiError(res, err)
		suite.add("OpenSearch SEARCH", false, detail)
		rep.Check("SEARCH", false, detail)
		return
	}
	var result struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
	}
	json.NewDecoder(res.Body).Decode(&result)
	res.Body.Close()
	suite.add("OpenSearch SEARCH", true, fmt.Sprintf("found %d documents", result.Hits.Total.Value))
	rep.Check("SEARCH", true, "")

	if indexed.ID != "" {
		res, err = client.Delete(index, indexed.ID,
			client.Delete.WithContext(hctx),
			client.Delete.WithRefresh("true"))
		if err != nil || res.IsError() {
			detail := apiError(res, err)
			suite.add("OpenSearch DELETE", false, detail)
			rep.Check("DELETE Document", false, detail)
			return
		}
		res.Body.Close()
		suite.add("OpenSearch DELETE", true, "deleted document")
		rep.Check("DELETE Document", true, "")
	}
}

// apiError renders a transport error or a non-2xx API response for a record
// message, never including the request credentials.
func apiError(res *opensearchapi.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	if res == nil {
		return "no response"
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 200))
	return fmt.Sprintf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
}
