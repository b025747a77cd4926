package checkup

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/scram"

	"github.com/hazz-dev/infracheck/internal/redact"
)

// defaultKafkaPort is the managed-platform broker port, not the upstream 9092.
const defaultKafkaPort = 25073

// KafkaConfig is assembled from environment variables; the broker has no
// URL form and no private/public variant.
type KafkaConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	CACert   string
}

// LoadKafkaConfig reads the broker settings from the environment. A zero
// Host means the broker is unconfigured.
func LoadKafkaConfig() KafkaConfig {
	cfg := KafkaConfig{
		Username: os.Getenv("KAFKA_USERNAME"),
		Password: os.Getenv("KAFKA_PASSWORD"),
		CACert:   firstEnv("KAFKA_CA_CERT", "CA_CERT"),
	}

	broker := firstEnv("KAFKA_BROKER", "KAFKA_BROKERS")
	if broker == "" {
		host := firstEnv("KAFKA_HOST", "KAFKA_HOSTNAME")
		if host == "" {
			return cfg
		}
		port := os.Getenv("KAFKA_PORT")
		if port == "" {
			port = strconv.Itoa(defaultKafkaPort)
		}
		broker = net.JoinHostPort(host, port)
	}

	// KAFKA_BROKERS may carry a comma-separated list; the probe targets the
	// first broker.
	if i := strings.IndexByte(broker, ','); i >= 0 {
		broker = broker[:i]
	}

	host, portStr, err := net.SplitHostPort(broker)
	if err != nil {
		cfg.Host = broker
		cfg.Port = 9092
		return cfg
	}
	cfg.Host = host
	cfg.Port, err = strconv.Atoi(portStr)
	if err != nil {
		cfg.Port = defaultKafkaPort
	}
	return cfg
}

// Broker returns host:port.
func (c KafkaConfig) Broker() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// KafkaRunner validates broker connectivity and topic metadata access. The
// broker gets no write probe: creating and consuming a throwaway topic is
// order-sensitive and environment-dependent.
type KafkaRunner struct {
	opts Options
}

func NewKafkaRunner(opts Options) *KafkaRunner {
	return &KafkaRunner{opts: opts}
}

func (r *KafkaRunner) System() string { return "kafka" }

func (r *KafkaRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	cfg := LoadKafkaConfig()
	if cfg.Host == "" {
		suite.Skipped = true
		suite.SkipReason = "no broker configured (KAFKA_BROKER or KAFKA_HOST+KAFKA_PORT)"
		return suite
	}

	rep.Info("broker: %s", cfg.Broker())
	if cfg.Username != "" {
		rep.Info("username: %s  password: %s", cfg.Username, redact.MaskSecret(cfg.Password, 4))
	}
	if cfg.CACert != "" {
		rep.Info("CA cert: configured (%d bytes)", len(cfg.CACert))
	}

	ok, msg := TCPProbe(ctx, cfg.Host, cfg.Port, r.opts.Timeouts.TCP.Duration)
	rep.Check("TCP Connectivity", ok, msg)
	if !suite.add("Kafka TCP", ok, msg) {
		rep.Warn("managed brokers listen on port %d - verify KAFKA_BROKER", defaultKafkaPort)
		return suite
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Broker()),
		kgo.ClientID("infracheck"),
	}
	if cfg.Username != "" {
		kopts = append(kopts, kgo.SASL(scram.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsSha256Mechanism()))

		tlsCfg := &tls.Config{}
		if cfg.CACert != "" {
			pool := x509.NewCertPool()
			// App-platform env vars carry the PEM with literal \n escapes.
			pem := strings.ReplaceAll(cfg.CACert, `\n`, "\n")
			if !pool.AppendCertsFromPEM([]byte(pem)) {
				suite.add("Kafka CA Cert", false, "KAFKA_CA_CERT is not valid PEM")
				rep.Check("CA Certificate", false, "not valid PEM")
				return suite
			}
			tlsCfg.RootCAs = pool
		}
		kopts = append(kopts, kgo.DialTLSConfig(tlsCfg))
	}

	client, err := kgo.NewClient(kopts...)
	if err != nil {
		suite.add("Kafka Connection", false, err.Error())
		rep.Check("Connection", false, err.Error())
		return suite
	}
	defer client.Close()

	pctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	if err := client.Ping(pctx); err != nil {
		msg := err.Error()
		suite.add("Kafka Connection", false, msg)
		rep.Check("Connection", false, msg)
		switch {
		case containsFold(msg, "sasl") || containsFold(msg, "authentication"):
			rep.Warn("check KAFKA_USERNAME and KAFKA_PASSWORD")
		case containsFold(msg, "tls") || containsFold(msg, "certificate"):
			rep.Warn("check KAFKA_CA_CERT - the broker may require its CA certificate")
		}
		return suite
	}
	suite.add("Kafka Connection", true, "broker reachable")
	rep.Check("Connection", true, "")

	admin := kadm.NewClient(client)
	lctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	topics, err := admin.ListTopics(lctx)
	if err != nil {
		suite.add("Kafka Metadata", false, err.Error())
		rep.Check("List Topics", false, err.Error())
		return suite
	}
	suite.add("Kafka Metadata", true, fmt.Sprintf("%d topics visible", len(topics)))
	rep.Check("List Topics", true, fmt.Sprintf("%d topics visible", len(topics)))
	if r.opts.Verbose {
		names := topics.Names()
		if len(names) > 5 {
			names = names[:5]
		}
		if len(names) > 0 {
			rep.Info("topics (first %d): %s", len(names), strings.Join(names, ", "))
		}
	}
	return suite
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
