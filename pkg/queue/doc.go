// Package queue provides the Redis contract shared between LoRaBridge message
// producers and the LoRaWAN transmitter.
//
// # Overview
//
// Producers register a device in a directory set and push messages into a
// per-device sorted set, keyed by a message ID and scored by arrival order.
// The payload itself lives in a plain string key. The transmitter pops the
// lowest-scored entry of a device with ZPOPMIN and consumes the payload with
// GETDEL, so each message is delivered at most once.
//
// # Replies
//
// Query methods return a Reply tagged with its Kind (Scalar, Collection,
// Missing, WrongType or Failed) instead of a bare error. A caller draining
// the queues treats everything except Scalar and Collection as "nothing to do
// for this device right now":
//
//	r := client.PopLowest(ctx, device)
//	switch r.Kind {
//	case queue.Collection:
//		// r.Value.Key names the payload
//	case queue.Missing:
//		// queue empty
//	case queue.WrongType, queue.Failed:
//		log.Printf("[WARN] %v", r.Err)
//	}
//
// # Redis Schema
//
// Device index:  {prefix}:device:index
// Device queue:  {prefix}:queue:{device}
// Message body:  {prefix}:device:{device}:message:{key}
// Status token:  txstatus
package queue
