package checkup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hazz-dev/infracheck/internal/redact"
	"github.com/hazz-dev/infracheck/internal/target"
)

const defaultInferenceEndpoint = "https://inference.do-ai.run"

// knownModels are checked against the model listing in order; the first match
// is reported.
var knownModels = []string{
	"meta-llama/Llama-3.3-70B-Instruct",
	"meta-llama/Llama-3.1-8B-Instruct",
	"mistralai/Mistral-7B-Instruct-v0.3",
}

// GradientConfig holds the inference API endpoint and access key.
type GradientConfig struct {
	AccessKey string
	Endpoint  string
}

// LoadGradientConfig reads the inference settings. The endpoint always has a
// value; an empty AccessKey limits the check to network reachability.
func LoadGradientConfig() GradientConfig {
	endpoint := firstEnv("INFERENCE_ENDPOINT", "GRADIENT_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultInferenceEndpoint
	}
	return GradientConfig{
		AccessKey: firstEnv("MODEL_ACCESS_KEY", "GRADIENT_ACCESS_KEY", "DO_AI_ACCESS_KEY"),
		Endpoint:  strings.TrimSuffix(endpoint, "/"),
	}
}

// GradientRunner validates the serverless inference API: DNS, TCP, HTTPS
// reachability, and authenticated model listing when an access key is set.
type GradientRunner struct {
	opts Options

	// httpClient overrides the default client in tests.
	httpClient *http.Client
}

func NewGradientRunner(opts Options) *GradientRunner {
	return &GradientRunner{opts: opts}
}

func (r *GradientRunner) System() string { return "gradient" }

func (r *GradientRunner) client() *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	return &http.Client{Timeout: r.opts.Timeouts.Driver.Duration}
}

func (r *GradientRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	cfg := LoadGradientConfig()
	rep.Info("endpoint: %s", cfg.Endpoint)
	if cfg.AccessKey != "" {
		rep.Info("access key: %s", redact.MaskSecret(cfg.AccessKey, 4))
	} else {
		rep.Info("access key: not configured")
	}

	t, err := target.ParseURL(cfg.Endpoint)
	if err != nil {
		suite.add("Gradient Endpoint", false, err.Error())
		rep.Check("Endpoint", false, err.Error())
		return suite
	}
	port := t.Port
	if port == 0 {
		port = 443
	}

	dctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	ok, addrs, msg := DNSProbe(dctx, t.Host)
	rep.Check("DNS Resolution", ok, msg)
	if !suite.add("Gradient DNS", ok, msg) {
		return suite
	}
	if r.opts.Verbose {
		rep.Info("resolved: %s", strings.Join(addrs, ", "))
	}

	ok, msg = TCPProbe(ctx, t.Host, port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("Gradient TCP", ok, msg) {
		return suite
	}

	// Any HTTP response, including an error status, proves HTTPS works.
	req, _ := http.NewRequestWithContext(dctx, http.MethodHead, cfg.Endpoint+"/", nil)
	resp, err := r.client().Do(req)
	if err != nil {
		suite.add("Gradient HTTPS", false, err.Error())
		rep.Check("HTTPS Connection", false, err.Error())
		return suite
	}
	resp.Body.Close()
	suite.add("Gradient HTTPS", true, fmt.Sprintf("HTTPS working (HTTP %d)", resp.StatusCode))
	rep.Check("HTTPS Connection", true, "")

	if cfg.AccessKey == "" {
		rep.Info("MODEL_ACCESS_KEY not configured - network connectivity verified, skipping API checks")
		return suite
	}

	r.apiProbe(dctx, &suite, cfg)
	return suite
}

func (r *GradientRunner) apiProbe(ctx context.Context, suite *Suite, cfg GradientConfig) {
	rep := r.opts.reporter()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoint+"/v1/models", nil)
	if err != nil {
		suite.add("Gradient API", false, err.Error())
		rep.Check("API Access", false, err.Error())
		return
	}
	req.Header.Set("Authorization", "Bearer "+cfg.AccessKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client().Do(req)
	if err != nil {
		suite.add("Gradient API", false, err.Error())
		rep.Check("API Access", false, err.Error())
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			suite.add("Gradient API", false, "invalid response: "+err.Error())
			rep.Check("API Access", false, err.Error())
			return
		}
		suite.add("Gradient API", true, fmt.Sprintf("API accessible, %d models", len(body.Data)))
		rep.Check("API Access", true, fmt.Sprintf("%d models available", len(body.Data)))
		if r.opts.Verbose {
			for i, m := range body.Data {
				if i == 5 {
					break
				}
				rep.Info("model: %s", m.ID)
			}
		}
		r.reportModel(suite, modelIDs(body.Data))
	case http.StatusUnauthorized:
		suite.add("Gradient Auth", false, "invalid access key")
		rep.Check("Authentication", false, "invalid MODEL_ACCESS_KEY")
		rep.Warn("check MODEL_ACCESS_KEY in the provider console")
	case http.StatusForbidden:
		suite.add("Gradient Auth", false, "access forbidden")
		rep.Check("Authentication", false, "access forbidden")
		rep.Warn("check MODEL_ACCESS_KEY permissions")
	default:
		suite.add("Gradient API", false, fmt.Sprintf("HTTP %d", resp.StatusCode))
		rep.Check("API Access", false, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
}

func (r *GradientRunner) reportModel(suite *Suite, ids []string) {
	rep := r.opts.reporter()
	for _, want := range knownModels {
		for _, id := range ids {
			if id == want {
				suite.add("Gradient Model", true, want+" available")
				rep.Check("Model: "+want[strings.LastIndexByte(want, '/')+1:], true, "")
				return
			}
		}
	}
	if len(ids) > 0 {
		suite.add("Gradient Model", true, "found model: "+ids[0])
		rep.Check("Model Available", true, ids[0])
	}
}

func modelIDs(data []struct {
	ID string `json:"id"`
}) []string {
	ids := make([]string, len(data))
	for i, d := range data {
		ids[i] = d.ID
	}
	return ids
}
