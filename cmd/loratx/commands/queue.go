package commands

import (
	"context"
	"sort"
	"time"

	"github.com/dyluth/loratx/internal/config"
	"github.com/dyluth/loratx/internal/printer"
	"github.com/dyluth/loratx/pkg/queue"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show pending messages per device and the transmitter status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadStore()
		client, err := newQueueClient(cfg)
		if err != nil {
			return printer.Fatal("Failed to create queue client", err, map[string]string{"url": cfg.RedisURL})
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		devices := client.Devices(ctx)
		if !devices.OK() {
			return printer.Fatal("Failed to list devices", devices.Err, map[string]string{"reply": devices.Kind.String()})
		}

		status, err := client.Status(ctx)
		switch {
		case queue.IsNotFound(err):
			status = "(none)"
		case err != nil:
			return printer.Fatal("Failed to read status", err, nil)
		}
		printer.Step("status: %s", status)

		if len(devices.Value) == 0 {
			printer.Printf("No devices registered\n")
			return nil
		}

		names := append([]string(nil), devices.Value...)
		sort.Strings(names)
		for _, device := range names {
			n, err := client.Pending(ctx, device)
			if err != nil {
				printer.Warning("%s: %v", device, err)
				continue
			}
			printer.Printf("%-24s %d\n", device, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
