package commands

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/loratx/internal/bridge"
	"github.com/dyluth/loratx/internal/config"
	"github.com/dyluth/loratx/internal/credentials"
	"github.com/dyluth/loratx/internal/health"
	"github.com/dyluth/loratx/internal/printer"
	"github.com/dyluth/loratx/internal/radio"
	"github.com/dyluth/loratx/internal/radio/sim"
	"github.com/spf13/cobra"
)

var errNoRadio = errors.New("no LoRaWAN MAC binding is linked into this build; run with --simulate")

type runOptions struct {
	simulate     bool
	simJoinDelay time.Duration
	simAirtime   time.Duration
	healthAddr   string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transmitter until interrupted",
	Long: `Decodes the device credentials, connects to the queue store, joins the
LoRaWAN network and drains queued messages until SIGINT or SIGTERM.

Exits non-zero if configuration is missing or malformed, or if the queue store
cannot be reached at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return printer.Fatal("Configuration error", err, nil)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runBridge(ctx, cfg, runOpts)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOpts.simulate, "simulate", false, "use the in-process simulated radio")
	runCmd.Flags().DurationVar(&runOpts.simJoinDelay, "sim-join-delay", 2*time.Second, "simulated radio: time until the join succeeds")
	runCmd.Flags().DurationVar(&runOpts.simAirtime, "sim-airtime", time.Second, "simulated radio: time until a transmission completes")
	runCmd.Flags().StringVar(&runOpts.healthAddr, "health-addr", "", "health endpoint listen address (overrides LORATX_HEALTH_ADDR, \"-\" disables)")
	rootCmd.AddCommand(runCmd)
}

// newRadio returns the radio stack for this run.
func newRadio(opts runOptions) (radio.Radio, error) {
	if !opts.simulate {
		return nil, errNoRadio
	}
	log.Printf("[WARN] Using simulated radio (join delay %s, airtime %s)", opts.simJoinDelay, opts.simAirtime)
	return sim.New(sim.Options{JoinDelay: opts.simJoinDelay, Airtime: opts.simAirtime}), nil
}

// runBridge wires the store, radio, engine and health server and blocks until
// ctx is cancelled.
func runBridge(ctx context.Context, cfg *config.Config, opts runOptions) error {
	creds, err := credentials.Load(cfg.DevEUI, cfg.DevKey)
	if err != nil {
		return printer.Fatal("Invalid credentials", err, nil)
	}
	log.Printf("[INFO] Device EUI %s, LoRaBridge gateway join channels: %t", creds.DevEUI, cfg.UseLoRaBridgeGateway)

	rdo, err := newRadio(opts)
	if err != nil {
		return printer.Fatal("No radio stack", err, nil)
	}

	client, err := newQueueClient(cfg)
	if err != nil {
		return printer.Fatal("Failed to create queue client", err, map[string]string{"url": cfg.RedisURL})
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("[ERROR] Error closing queue client: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = client.Ping(pingCtx)
	cancel()
	if err != nil {
		return printer.Fatal("Redis not accessible", err, map[string]string{"url": cfg.RedisURL})
	}
	log.Printf("[INFO] Connected to Redis")

	engine := bridge.NewEngine(client, client, rdo, bridge.Options{
		HeartbeatInterval: cfg.Tunables.HeartbeatInterval,
		DrainInterval:     cfg.Tunables.DrainInterval,
		Port:              uint8(cfg.Tunables.Port),
		MaxPayload:        cfg.Tunables.MaxPayload,
		StoreTimeout:      cfg.Tunables.RedisTimeout,
	})
	engine.Publish(ctx, bridge.StatusUninitialized)

	addr := cfg.HealthAddr
	if opts.healthAddr != "" {
		addr = opts.healthAddr
	}
	if addr != "-" {
		healthServer := health.NewServer(client, engine, addr)
		if err := healthServer.Start(); err != nil {
			return printer.Fatal("Failed to start health server", err, map[string]string{"addr": addr})
		}
		log.Printf("[INFO] Health server started on %s", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("[ERROR] Health server shutdown error: %v", err)
			}
		}()
	}

	plan := radio.DefaultJoinChannels
	if cfg.UseLoRaBridgeGateway {
		plan = radio.LoRaBridgeJoinChannels
	}
	if err := rdo.Start(ctx, radio.Session{Credentials: creds, Plan: plan}); err != nil {
		return printer.Fatal("Failed to start radio", err, nil)
	}
	engine.Publish(ctx, bridge.StatusJoining)

	if err := engine.Run(ctx); err != nil {
		log.Printf("[ERROR] Engine error: %v", err)
		return err
	}

	log.Printf("[INFO] Transmitter shutdown complete")
	return nil
}
