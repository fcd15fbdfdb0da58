package commands

import (
	"fmt"
	"time"

	"github.com/dyluth/loratx/internal/config"
	"github.com/dyluth/loratx/internal/printer"
	"github.com/dyluth/loratx/pkg/queue"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loratx",
	Short: "loratx - LoRaWAN uplink bridge for LoRaBridge message queues",
	Long: `loratx drains per-device message queues from Redis onto a LoRaWAN radio,
one frame at a time, and keeps the session alive with heartbeats while the
link is down.

Credentials are read from DEV_EUI, DEV_KEY and USE_LB_GW.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := config.LoadEnvFile(envFile); err != nil {
			return printer.Fatal("Failed to load env file", err, map[string]string{"path": envFile})
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Errors are already printed by the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with timing and framing tunables")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file first")
}

// newQueueClient connects to the queue store described by cfg.
func newQueueClient(cfg *config.Config) (*queue.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if t := cfg.Tunables.RedisTimeout; t > 0 {
		opts.DialTimeout = t
	} else {
		opts.DialTimeout = 1500 * time.Millisecond
	}

	return queue.NewClient(opts, cfg.KeyPrefix, cfg.StatusKey)
}
