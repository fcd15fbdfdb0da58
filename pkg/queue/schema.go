package queue

import "fmt"

// Redis key pattern helpers
//
// Keys are namespaced by a prefix shared with the producers that fill the
// queues (default "lorabridge").
//
// Device index:  {prefix}:device:index                      (SET)
// Device queue:  {prefix}:queue:{device}                    (ZSET, member = message key)
// Message body:  {prefix}:device:{device}:message:{key}     (STRING)

// DefaultPrefix is the namespace used by the LoRaBridge producers.
const DefaultPrefix = "lorabridge"

// DefaultStatusKey is the key the UI reads the transmitter status from.
const DefaultStatusKey = "txstatus"

// DeviceIndexKey returns the key of the set of known devices.
// Pattern: {prefix}:device:index
func DeviceIndexKey(prefix string) string {
	return fmt.Sprintf("%s:device:index", prefix)
}

// QueueKey returns the key of a device's priority queue.
// Pattern: {prefix}:queue:{device}
func QueueKey(prefix, device string) string {
	return fmt.Sprintf("%s:queue:%s", prefix, device)
}

// MessageKey returns the key holding one message payload.
// Pattern: {prefix}:device:{device}:message:{key}
func MessageKey(prefix, device, key string) string {
	return fmt.Sprintf("%s:device:%s:message:%s", prefix, device, key)
}
