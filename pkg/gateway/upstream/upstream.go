// Package upstream wraps the Gemini Live API behind a small duplex
// conversation interface so bridges (and tests) never touch the wire
// protocol directly.
package upstream

import "context"

type EventKind int

const (
	EventAudio EventKind = iota + 1
	EventText
	EventTurnComplete
	EventInterrupted
)

// Event is one element of a conversation's receive stream, translated
// 1:1 from the upstream message it came from.
type Event struct {
	Kind  EventKind
	Audio []byte
	Text  string
}

// Conversation is one live exchange with the upstream service. The
// receive stream is exhaustible-once: after the upstream ends it,
// callers must open a new conversation rather than retry Receive.
type Conversation interface {
	// SendAudio enqueues a raw PCM frame for the current turn.
	// Best-effort and ordered; there is no acknowledgement.
	SendAudio(pcm []byte) error
	// SendText submits a text turn. endTurn marks it as a complete
	// conversational turn.
	SendText(text string, endTurn bool) error
	// Receive blocks for the next event. It returns io.EOF once the
	// upstream closes the stream.
	Receive() (Event, error)
	// Close releases the upstream session. Idempotent.
	Close() error
}

// Dialer opens a fresh conversation. The chunked TTS mode dials once
// per chunk; the voice mode dials once per connection.
type Dialer func(ctx context.Context) (Conversation, error)
