// Package credentials decodes the LoRaWAN OTAA identifiers handed to the bridge
// as hexadecimal text into the fixed-width byte values the radio stack expects.
package credentials

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DevEUISize is the device identity length in bytes.
	DevEUISize = 8

	// DevKeySize is the device secret (AppKey) length in bytes.
	DevKeySize = 16
)

var (
	// ErrInvalidLength is returned when the hex text is odd-length or does not
	// encode exactly the requested number of bytes.
	ErrInvalidLength = errors.New("invalid hex length")

	// ErrInvalidDigit is returned when the hex text contains a non-hex character.
	ErrInvalidDigit = errors.New("invalid hex digit")
)

// DevEUI is the device identity in the least-significant-byte-first order used
// on the air.
type DevEUI [DevEUISize]byte

// String renders the EUI in its natural, most-significant-byte-first form.
func (e DevEUI) String() string {
	var b strings.Builder
	for i := len(e) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%02X", e[i])
	}
	return b.String()
}

// DevKey is the 16 byte device secret, stored in decoded order.
type DevKey [DevKeySize]byte

// String redacts the key so it never reaches a log line.
func (k DevKey) String() string {
	return "[redacted]"
}

// AppEUI is the application router ID. The LoRaBridge deployment uses the
// all-zero value.
type AppEUI [8]byte

// Credentials holds everything the radio stack asks for during the join.
// Values are immutable once Load returns.
type Credentials struct {
	AppEUI AppEUI
	DevEUI DevEUI
	DevKey DevKey
}

// Load decodes both identifiers. Either both succeed or no credentials are
// returned.
func Load(devEUIText, devKeyText string) (*Credentials, error) {
	eui, err := ParseDevEUI(devEUIText)
	if err != nil {
		return nil, fmt.Errorf("DEV_EUI: %w", err)
	}

	key, err := ParseDevKey(devKeyText)
	if err != nil {
		return nil, fmt.Errorf("DEV_KEY: %w", err)
	}

	return &Credentials{DevEUI: eui, DevKey: key}, nil
}

// ParseDevEUI decodes 16 hex characters and reverses the result end-to-end,
// so "0011223344556677" becomes 77 66 55 44 33 22 11 00.
func ParseDevEUI(text string) (DevEUI, error) {
	var eui DevEUI

	raw, err := DecodeHex(text, DevEUISize)
	if err != nil {
		return eui, err
	}

	for i := range raw {
		eui[i] = raw[len(raw)-1-i]
	}
	return eui, nil
}

// ParseDevKey decodes 32 hex characters. The key keeps its decoded order.
func ParseDevKey(text string) (DevKey, error) {
	var key DevKey

	raw, err := DecodeHex(text, DevKeySize)
	if err != nil {
		return key, err
	}

	copy(key[:], raw)
	return key, nil
}

// DecodeHex decodes text into exactly size bytes. Each pair of characters maps
// to one byte, high nibble first. Both upper and lower case digits are accepted.
func DecodeHex(text string, size int) ([]byte, error) {
	if len(text)%2 != 0 || len(text) != 2*size {
		return nil, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidLength, 2*size, len(text))
	}

	out := make([]byte, size)
	for i := 0; i < size; i++ {
		hi, ok := nibble(text[2*i])
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, text[2*i], 2*i)
		}
		lo, ok := nibble(text[2*i+1])
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, text[2*i+1], 2*i+1)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
