package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	prevOut, prevErr := Out, Err
	Out, Err = &out, &errOut
	t.Cleanup(func() { Out, Err = prevOut, prevErr })
	return &out, &errOut
}

func TestFatal(t *testing.T) {
	t.Run("returns error with title only", func(t *testing.T) {
		_, errOut := capture(t)

		err := Fatal("Invalid credentials", errors.New("DEV_EUI: invalid hex digit"), nil)
		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", err.Error())
		assert.Contains(t, errOut.String(), "Invalid credentials")
		assert.Contains(t, errOut.String(), "DEV_EUI: invalid hex digit")
	})

	t.Run("prints details in key order", func(t *testing.T) {
		_, errOut := capture(t)

		Fatal("Redis not accessible", nil, map[string]string{
			"url":    "redis://redis:6379",
			"prefix": "lorabridge",
		})
		s := errOut.String()
		assert.Less(t, bytes.Index([]byte(s), []byte("prefix")), bytes.Index([]byte(s), []byte("url")))
	})
}

func TestOutputHelpers(t *testing.T) {
	out, _ := capture(t)

	Success("Connected to %s", "redis")
	Warning("simulated radio")
	Step("joining")
	Printf("%s=%d\n", "A", 3)

	s := out.String()
	assert.Contains(t, s, "✓ Connected to redis")
	assert.Contains(t, s, "simulated radio")
	assert.Contains(t, s, "→ joining")
	assert.Contains(t, s, "A=3")
}
