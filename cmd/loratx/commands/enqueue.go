package commands

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/dyluth/loratx/internal/config"
	"github.com/dyluth/loratx/internal/printer"
	"github.com/spf13/cobra"
)

var (
	enqueueDevice  string
	enqueuePayload string
	enqueueHex     bool
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue one message for a device",
	Long: `Writes a message into a device queue the same way LoRaBridge producers do.
The score is the current time in milliseconds, so messages drain in arrival order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := []byte(enqueuePayload)
		if enqueueHex {
			decoded, err := hex.DecodeString(enqueuePayload)
			if err != nil {
				return printer.Fatal("Invalid payload", err, nil)
			}
			payload = decoded
		}

		cfg := config.LoadStore()
		client, err := newQueueClient(cfg)
		if err != nil {
			return printer.Fatal("Failed to create queue client", err, map[string]string{"url": cfg.RedisURL})
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		key, err := client.Enqueue(ctx, enqueueDevice, payload, float64(time.Now().UnixMilli()))
		if err != nil {
			return printer.Fatal("Failed to enqueue message", err, map[string]string{"device": enqueueDevice})
		}

		printer.Success("Queued %d bytes for device %s (key %s)", len(payload), enqueueDevice, key)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueDevice, "device", "", "device identifier (required)")
	enqueueCmd.Flags().StringVar(&enqueuePayload, "payload", "", "message body")
	enqueueCmd.Flags().BoolVar(&enqueueHex, "hex", false, "payload is hexadecimal")
	enqueueCmd.MarkFlagRequired("device")
	rootCmd.AddCommand(enqueueCmd)
}
