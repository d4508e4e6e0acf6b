// ABOUTME: Package documentation for playout
// ABOUTME: Describes the scheduling engine and its concurrency contract
//
// Package playout feeds immutable frames into a DeckLink-class output device
// that pulls data via asynchronous completion callbacks.
//
// One owning goroutine constructs the Consumer and calls Send; the device's
// video-completion and audio-render callbacks run on independent goroutines,
// concurrently with each other and with the owner. Send's fast path never
// blocks: when a slot is full it returns an unresolved SendFuture that the
// callback goroutines resolve as slots free up, so the rendering pipeline is
// never stalled by hardware pacing.
package playout
