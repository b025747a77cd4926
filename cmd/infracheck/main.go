// Command infracheck validates connectivity from an app container to its
// managed infrastructure: databases, caches, brokers, object storage, and
// inference APIs.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hazz-dev/infracheck/internal/checkup"
	"github.com/hazz-dev/infracheck/internal/version"
)

var (
	verbose      bool
	cfgFile      string
	timeoutFlag  time.Duration
	requiredVars []string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "infracheck",
		Short:        "Validate connectivity to managed infrastructure",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is the normal case in production.
			_ = godotenv.Load()
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detail for passing checks")
	root.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "override every probe timeout")
	root.PersistentFlags().StringVar(&cfgFile, "config", "infracheck.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(allCmd())
	for _, sys := range []string{"network", "cache", "kafka", "opensearch", "spaces", "gradient"} {
		root.AddCommand(systemCmd(sys))
	}
	root.AddCommand(databaseCmd())
	root.AddCommand(envCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "infracheck %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}

func allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every connectivity check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRunners(cmd, checkup.All)
		},
	}
}

var systemShorts = map[string]string{
	"network":    "Check external DNS, HTTPS, and registry reachability",
	"cache":      "Validate the managed Redis/Valkey cache",
	"kafka":      "Validate the managed Kafka cluster",
	"opensearch": "Validate the managed OpenSearch cluster",
	"spaces":     "Validate object storage access",
	"gradient":   "Validate the serverless inference API",
}

func systemCmd(system string) *cobra.Command {
	return &cobra.Command{
		Use:   system,
		Short: systemShorts[system],
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRunners(cmd, func(opts checkup.Options) []checkup.Runner {
				return []checkup.Runner{checkup.New(system, opts)}
			})
		},
	}
}

func databaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "database [engine]",
		Short: "Validate the managed database (postgres, mysql, or mongodb)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := ""
			if len(args) == 1 {
				engine = args[0]
			}
			return executeRunners(cmd, func(opts checkup.Options) []checkup.Runner {
				return []checkup.Runner{checkup.NewDatabaseRunner(opts, engine)}
			})
		},
	}
}

func envCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Audit required and platform environment variables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRunners(cmd, func(opts checkup.Options) []checkup.Runner {
				return []checkup.Runner{checkup.NewEnvRunner(opts, requiredVars)}
			})
		},
	}
	cmd.Flags().StringSliceVar(&requiredVars, "required", nil, "comma-separated variables that must be set")
	return cmd
}
