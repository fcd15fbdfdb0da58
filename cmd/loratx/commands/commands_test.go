package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/loratx/internal/bridge"
	"github.com/dyluth/loratx/internal/config"
	"github.com/dyluth/loratx/internal/credentials"
	"github.com/dyluth/loratx/internal/printer"
	"github.com/dyluth/loratx/pkg/queue"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(mr *miniredis.Miniredis) *config.Config {
	return &config.Config{
		DevEUI:     "0011223344556677",
		DevKey:     "2B7E151628AED2A6ABF7158809CF4F3C",
		RedisURL:   "redis://" + mr.Addr(),
		KeyPrefix:  queue.DefaultPrefix,
		StatusKey:  queue.DefaultStatusKey,
		HealthAddr: "-",
		Tunables: config.Tunables{
			DrainInterval: 10 * time.Millisecond,
			RedisTimeout:  200 * time.Millisecond,
		},
	}
}

func simOptions() runOptions {
	return runOptions{simulate: true, simJoinDelay: 10 * time.Millisecond, simAirtime: 5 * time.Millisecond}
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	prevOut, prevErr := printer.Out, printer.Err
	printer.Out, printer.Err = &out, &errOut
	t.Cleanup(func() { printer.Out, printer.Err = prevOut, prevErr })
	return &out
}

func TestRunBridge_DrainsQueue(t *testing.T) {
	captureOutput(t)
	mr := miniredis.RunT(t)
	cfg := testConfig(mr)

	client, err := newQueueClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	for _, msg := range []string{"a", "b"} {
		_, err := client.Enqueue(context.Background(), "sensor-1", []byte(msg), float64(time.Now().UnixNano()))
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, runBridge(ctx, cfg, simOptions()))

	n, err := client.Pending(context.Background(), "sensor-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	status, err := mr.Get(queue.DefaultStatusKey)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusJoined, status)
}

func TestRunBridge_FatalErrors(t *testing.T) {
	captureOutput(t)

	t.Run("malformed credentials", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(mr)
		cfg.DevEUI = "00112233445566ZZ"

		err := runBridge(context.Background(), cfg, simOptions())
		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", err.Error())
		assert.False(t, mr.Exists(queue.DefaultStatusKey), "nothing published before credentials are valid")
	})

	t.Run("short credentials", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(mr)
		cfg.DevKey = "2B7E1516"

		err := runBridge(context.Background(), cfg, simOptions())
		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", err.Error())

		_, cause := credentials.Load(cfg.DevEUI, cfg.DevKey)
		assert.True(t, errors.Is(cause, credentials.ErrInvalidLength))
	})

	t.Run("no radio stack", func(t *testing.T) {
		mr := miniredis.RunT(t)
		err := runBridge(context.Background(), testConfig(mr), runOptions{})
		require.Error(t, err)
		assert.Equal(t, "No radio stack", err.Error())
	})

	t.Run("store unreachable", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		cfg := testConfig(mr)
		mr.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := runBridge(ctx, cfg, simOptions())
		require.Error(t, err)
		assert.Equal(t, "Redis not accessible", err.Error())
	})

	t.Run("invalid redis url", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(mr)
		cfg.RedisURL = "http://nope"

		err := runBridge(context.Background(), cfg, simOptions())
		require.Error(t, err)
		assert.Equal(t, "Failed to create queue client", err.Error())
	})
}

func TestEnqueueAndQueueCommands(t *testing.T) {
	out := captureOutput(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("LORATX_KEY_PREFIX", "")
	t.Setenv("LORATX_STATUS_KEY", "")

	rootCmd.SetArgs([]string{"enqueue", "--device", "sensor-1", "--payload", "48656c6c6f", "--hex"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "Queued 5 bytes for device sensor-1")

	rootCmd.SetArgs([]string{"queue"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "status: (none)")
	assert.Contains(t, out.String(), "sensor-1")

	client, err := newQueueClient(config.LoadStore())
	require.NoError(t, err)
	defer client.Close()

	desc := client.PopLowest(context.Background(), "sensor-1")
	require.True(t, desc.OK())
	payload := client.FetchAndDelete(context.Background(), "sensor-1", desc.Value.Key)
	require.True(t, payload.OK())
	assert.Equal(t, "Hello", string(payload.Value))
}

func TestRunCommand_MissingConfig(t *testing.T) {
	captureOutput(t)
	t.Setenv("DEV_EUI", "")
	t.Setenv("DEV_KEY", "")
	t.Setenv("USE_LB_GW", "")

	rootCmd.SetArgs([]string{"run", "--simulate"})
	err := Execute()
	require.Error(t, err)
	assert.Equal(t, "Configuration error", err.Error())
}
