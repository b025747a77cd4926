package checkup

import (
	"context"

	"github.com/hazz-dev/infracheck/internal/config"
	"github.com/hazz-dev/infracheck/internal/target"
)

// Runner validates one subsystem, producing a Suite of ordered records.
type Runner interface {
	// System is the subcommand name the runner answers to.
	System() string
	Run(ctx context.Context) Suite
}

// Options carries the shared dependencies every runner needs.
type Options struct {
	Resolver *target.Resolver
	Reporter Reporter
	Timeouts config.Timeouts
	Verbose  bool
}

func (o *Options) reporter() Reporter {
	if o.Reporter == nil {
		return NopReporter{}
	}
	return o.Reporter
}

// All returns every runner in the fixed order the "all" subcommand executes
// them. The set of supported systems is closed; see New for routing by name.
func All(opts Options) []Runner {
	return []Runner{
		NewNetworkRunner(opts),
		NewDatabaseRunner(opts, ""),
		NewCacheRunner(opts),
		NewKafkaRunner(opts),
		NewOpenSearchRunner(opts),
		NewSpacesRunner(opts),
		NewGradientRunner(opts),
	}
}

// New maps a subcommand name to its runner, or nil for an unknown name.
func New(system string, opts Options) Runner {
	switch system {
	case "network":
		return NewNetworkRunner(opts)
	case "database":
		return NewDatabaseRunner(opts, "")
	case "cache":
		return NewCacheRunner(opts)
	case "kafka":
		return NewKafkaRunner(opts)
	case "opensearch":
		return NewOpenSearchRunner(opts)
	case "spaces":
		return NewSpacesRunner(opts)
	case "gradient":
		return NewGradientRunner(opts)
	default:
		return nil
	}
}

// runCtx bounds a single driver call with the given timeout.
func runCtx(ctx context.Context, d config.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.Duration)
}
