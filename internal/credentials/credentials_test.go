package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHex(t *testing.T) {
	t.Run("decodes each pair into one byte", func(t *testing.T) {
		out, err := DecodeHex("00A1ff7E", 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xA1, 0xFF, 0x7E}, out)
	})

	t.Run("rejects odd length", func(t *testing.T) {
		out, err := DecodeHex("ABC", 2)
		assert.ErrorIs(t, err, ErrInvalidLength)
		assert.Nil(t, out)
	})

	t.Run("rejects wrong target length", func(t *testing.T) {
		_, err := DecodeHex("0011", 8)
		assert.ErrorIs(t, err, ErrInvalidLength)

		_, err = DecodeHex("001122334455667788", 8)
		assert.ErrorIs(t, err, ErrInvalidLength)
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		for _, text := range []string{"0G", "G0", "0:", "@0", "0 ", "zz"} {
			out, err := DecodeHex(text, 1)
			assert.ErrorIs(t, err, ErrInvalidDigit, text)
			assert.Nil(t, out, text)
		}
	})

	t.Run("reports the failing position", func(t *testing.T) {
		_, err := DecodeHex("00X0", 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "position 2")
	})
}

func TestParseDevEUI(t *testing.T) {
	t.Run("reverses decoded bytes", func(t *testing.T) {
		eui, err := ParseDevEUI("0011223344556677")
		require.NoError(t, err)
		assert.Equal(t, DevEUI{0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0x00}, eui)
	})

	t.Run("matches manual reversal for arbitrary input", func(t *testing.T) {
		for _, text := range []string{"70B3D57ED0001234", "FFFFFFFFFFFFFFFF", "0123456789abcdef"} {
			raw, err := DecodeHex(text, DevEUISize)
			require.NoError(t, err)

			eui, err := ParseDevEUI(text)
			require.NoError(t, err)

			for i := range raw {
				assert.Equal(t, raw[len(raw)-1-i], eui[i], text)
			}
		}
	})

	t.Run("String prints natural order", func(t *testing.T) {
		eui, err := ParseDevEUI("70B3D57ED0001234")
		require.NoError(t, err)
		assert.Equal(t, "70B3D57ED0001234", eui.String())
	})

	t.Run("rejects short input", func(t *testing.T) {
		_, err := ParseDevEUI("00112233")
		assert.ErrorIs(t, err, ErrInvalidLength)
	})
}

func TestParseDevKey(t *testing.T) {
	t.Run("keeps decoded order", func(t *testing.T) {
		key, err := ParseDevKey("000102030405060708090A0B0C0D0E0F")
		require.NoError(t, err)
		for i := range key {
			assert.Equal(t, byte(i), key[i])
		}
	})

	t.Run("never prints the key", func(t *testing.T) {
		key, err := ParseDevKey("2B7E151628AED2A6ABF7158809CF4F3C")
		require.NoError(t, err)
		assert.Equal(t, "[redacted]", key.String())
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads both values", func(t *testing.T) {
		creds, err := Load("0011223344556677", "2B7E151628AED2A6ABF7158809CF4F3C")
		require.NoError(t, err)
		assert.Equal(t, byte(0x77), creds.DevEUI[0])
		assert.Equal(t, byte(0x2B), creds.DevKey[0])
		assert.Equal(t, AppEUI{}, creds.AppEUI)
	})

	t.Run("returns nothing when the key is malformed", func(t *testing.T) {
		creds, err := Load("0011223344556677", "2B7E151628AED2A6ABF7158809CF4FXX")
		assert.Nil(t, creds)
		assert.ErrorIs(t, err, ErrInvalidDigit)
		assert.Contains(t, err.Error(), "DEV_KEY")
	})

	t.Run("returns nothing when the EUI is malformed", func(t *testing.T) {
		creds, err := Load("001122334455667", "2B7E151628AED2A6ABF7158809CF4F3C")
		assert.Nil(t, creds)
		assert.ErrorIs(t, err, ErrInvalidLength)
		assert.Contains(t, err.Error(), "DEV_EUI")
	})
}
