// Package bridge owns one client WebSocket and relays it against the
// upstream live service: a duplex pipeline in voice mode, a sequence
// of per-chunk upstream sessions in text-to-speech mode.
package bridge

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/voicebridge/pkg/core"
	"github.com/vango-go/voicebridge/pkg/gateway/live/chunk"
	"github.com/vango-go/voicebridge/pkg/gateway/live/protocol"
	"github.com/vango-go/voicebridge/pkg/gateway/upstream"
)

type Mode int

const (
	ModeVoice Mode = iota
	ModeTTS
)

// State follows Idle -> Connecting -> Streaming -> Draining -> Closed.
// Closed is terminal; a new bridge is required to reconnect.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDraining
	StateClosed
)

const ttsTurnPrefix = "Please read this text aloud: "

var errNotLive = errors.New("client transport is not live")

type Config struct {
	Mode          Mode
	PingInterval  time.Duration
	WriteTimeout  time.Duration
	QueueSize     int
	MaxChunkChars int
}

type Dependencies struct {
	Conn   *websocket.Conn
	Logger *slog.Logger
	Dial   upstream.Dialer
	ConnID string
	Config Config
}

// inboundFrame is one pending client frame awaiting forwarding to the
// upstream. Exactly one of audio/text is set.
type inboundFrame struct {
	audio []byte
	text  string
}

type Bridge struct {
	conn   *websocket.Conn
	logger *slog.Logger
	dial   upstream.Dialer
	id     string
	cfg    Config

	state atomic.Int32
	live  atomic.Bool

	// inbound is the single synchronization point between the client
	// read loop and the upstream send loop; closing it is the
	// shutdown sentinel for the consumer.
	inbound   chan inboundFrame
	queueOnce sync.Once

	// The upstream conversation for the voice pipeline. Closed exactly
	// once, no matter which side tears the bridge down.
	convMu    sync.Mutex
	conv      upstream.Conversation
	closeConv sync.Once

	writeMu sync.Mutex

	cancelMu sync.Mutex
	cancelFn context.CancelFunc
}

func New(deps Dependencies) (*Bridge, error) {
	if deps.Conn == nil {
		return nil, errors.New("bridge requires a client connection")
	}
	if deps.Dial == nil {
		return nil, errors.New("bridge requires an upstream dialer")
	}

	cfg := deps.Config
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 500
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bridge{
		conn:    deps.Conn,
		logger:  logger,
		dial:    deps.Dial,
		id:      deps.ConnID,
		cfg:     cfg,
		inbound: make(chan inboundFrame, cfg.QueueSize),
	}
	b.state.Store(int32(StateIdle))
	return b, nil
}

func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Cancel tears the bridge down from outside (graceful shutdown). Safe
// to call at any time and more than once. The queue sentinel is left
// to the read loop, which owns the producer side of the channel.
func (b *Bridge) Cancel() {
	b.live.Store(false)
	b.closeUpstream()
	_ = b.conn.Close()

	b.cancelMu.Lock()
	cancel := b.cancelFn
	b.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SendWarning pushes a best-effort error frame without closing the
// bridge; used by the drain path before shutdown.
func (b *Bridge) SendWarning(message string) error {
	return b.writeFrame(protocol.Error(message))
}

// Run drives the bridge until either side closes. It always leaves the
// bridge in StateClosed with the queue sentinel delivered, the
// upstream released, and the liveness flag cleared.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancelMu.Lock()
	b.cancelFn = cancel
	b.cancelMu.Unlock()
	defer cancel()

	b.live.Store(true)

	stopPing := b.startPing(ctx)
	defer stopPing()

	var err error
	switch b.cfg.Mode {
	case ModeTTS:
		err = b.runTTS(ctx)
	default:
		err = b.runVoice(ctx)
	}

	b.state.Store(int32(StateDraining))
	b.closeQueue()
	b.closeUpstream()
	b.live.Store(false)
	_ = b.conn.Close()
	b.state.Store(int32(StateClosed))

	return err
}

// runVoice connects one upstream conversation and runs the two
// forwarding loops until the client disconnects or the upstream ends.
func (b *Bridge) runVoice(ctx context.Context) error {
	b.state.Store(int32(StateConnecting))

	conv, err := b.dial(ctx)
	if err != nil {
		b.logger.Warn("upstream connect failed", "conn_id", b.id, "error", err)
		_ = b.writeFrame(protocol.Error(errorMessage(err)))
		return err
	}
	b.setConversation(conv)

	b.state.Store(int32(StateStreaming))
	if err := b.writeFrame(protocol.Connected()); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancelFromLoop(b)
		b.forwardUpstream(conv)
	}()
	go func() {
		defer wg.Done()
		if err := b.forwardInbound(conv); err != nil {
			_ = b.writeFrame(protocol.Error(errorMessage(err)))
			cancelFromLoop(b)
		}
	}()

	b.readClient(ctx)

	// Client side is done: deliver the sentinel and release the
	// upstream so both forwarding loops exit promptly.
	b.closeQueue()
	b.closeUpstream()
	wg.Wait()
	return nil
}

// cancelFromLoop stops the client read loop once the upstream stream
// has ended, by closing the transport the reader is blocked on.
func cancelFromLoop(b *Bridge) {
	b.Cancel()
}

// readClient decodes inbound frames and enqueues them in arrival
// order. Malformed frames are logged and ignored; the connection
// stays open.
func (b *Bridge) readClient(ctx context.Context) {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logger.Warn("client read failed", "conn_id", b.id, "error", err)
			}
			return
		}

		decoded, err := protocol.DecodeClientMessage(data)
		if err != nil {
			b.logger.Warn("ignoring malformed client frame", "conn_id", b.id, "error", err)
			continue
		}

		var frame inboundFrame
		switch msg := decoded.(type) {
		case protocol.ClientAudioFrame:
			pcm, decErr := base64.StdEncoding.DecodeString(msg.DataB64)
			if decErr != nil {
				b.logger.Warn("ignoring undecodable audio frame", "conn_id", b.id, "error", decErr)
				continue
			}
			frame = inboundFrame{audio: pcm}
		case protocol.ClientTTSRequest:
			frame = inboundFrame{text: msg.Text}
		default:
			continue
		}

		select {
		case b.inbound <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// forwardInbound dequeues pending client frames and calls the matching
// upstream send operation. The closed channel is the shutdown
// sentinel. A send error is returned so the caller can tear the
// bridge down instead of leaving the read loop feeding a dead queue.
func (b *Bridge) forwardInbound(conv upstream.Conversation) error {
	for frame := range b.inbound {
		var err error
		if frame.audio != nil {
			err = conv.SendAudio(frame.audio)
		} else {
			err = conv.SendText(frame.text, true)
		}
		if err != nil {
			b.logger.Warn("upstream send failed", "conn_id", b.id, "error", err)
			return err
		}
	}
	return nil
}

// forwardUpstream consumes the upstream receive stream and relays each
// event to the client while the transport is live.
func (b *Bridge) forwardUpstream(conv upstream.Conversation) {
	for {
		ev, err := conv.Receive()
		if err != nil {
			if err != io.EOF {
				b.logger.Warn("upstream receive failed", "conn_id", b.id, "error", err)
				_ = b.writeFrame(protocol.Error(errorMessage(err)))
			}
			return
		}

		switch ev.Kind {
		case upstream.EventAudio:
			_ = b.writeFrame(protocol.Audio(base64.StdEncoding.EncodeToString(ev.Audio)))
		case upstream.EventText:
			_ = b.writeFrame(protocol.Text(ev.Text))
		case upstream.EventTurnComplete:
			_ = b.writeFrame(protocol.TurnComplete())
		case upstream.EventInterrupted:
			_ = b.writeFrame(protocol.Interrupted())
		}
	}
}

// runTTS serves one chunked text-to-speech request: wait for the
// request, then one upstream conversation per chunk with progress
// frames in between and a single trailing complete frame.
func (b *Bridge) runTTS(ctx context.Context) error {
	b.state.Store(int32(StateStreaming))
	if err := b.writeFrame(protocol.Connected()); err != nil {
		return err
	}

	text, ok := b.readTTSRequest(ctx)
	if !ok {
		return nil
	}

	// Watch for a client disconnect while chunks are streaming.
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for {
			if _, _, err := b.conn.ReadMessage(); err != nil {
				b.live.Store(false)
				b.cancelMu.Lock()
				cancel := b.cancelFn
				b.cancelMu.Unlock()
				if cancel != nil {
					cancel()
				}
				return
			}
		}
	}()

	err := b.speakChunks(ctx, text)
	_ = b.conn.Close()
	<-watchDone
	return err
}

// readTTSRequest blocks for the first well-formed tts frame. Malformed
// frames are ignored, matching the voice path.
func (b *Bridge) readTTSRequest(ctx context.Context) (string, bool) {
	for {
		if ctx.Err() != nil {
			return "", false
		}
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return "", false
		}
		decoded, err := protocol.DecodeClientMessage(data)
		if err != nil {
			b.logger.Warn("ignoring malformed client frame", "conn_id", b.id, "error", err)
			continue
		}
		msg, ok := decoded.(protocol.ClientTTSRequest)
		if !ok {
			b.logger.Warn("ignoring non-tts frame in tts mode", "conn_id", b.id)
			continue
		}
		return msg.Text, true
	}
}

func (b *Bridge) speakChunks(ctx context.Context, text string) error {
	chunks := chunk.Split(text, b.cfg.MaxChunkChars)
	if len(chunks) == 0 {
		return b.writeFrame(protocol.Complete())
	}

	b.logger.Info("tts request", "conn_id", b.id, "chunks", len(chunks))

	for _, c := range chunks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.writeFrame(protocol.Progress(c.Ordinal+1, c.Total)); err != nil {
			return err
		}
		if err := b.speakChunk(ctx, c.Text); err != nil {
			_ = b.writeFrame(protocol.Error(errorMessage(err)))
			return err
		}
	}

	return b.writeFrame(protocol.Complete())
}

// speakChunk runs one chunk as an independent upstream turn: connect,
// submit the read-aloud turn, relay audio until the turn completes.
func (b *Bridge) speakChunk(ctx context.Context, text string) error {
	conv, err := b.dial(ctx)
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closeConv := func() { closeOnce.Do(func() { _ = conv.Close() }) }
	defer closeConv()

	// Unblock Receive if the client goes away mid-chunk.
	stop := context.AfterFunc(ctx, closeConv)
	defer stop()

	if err := conv.SendText(ttsTurnPrefix+text, true); err != nil {
		return err
	}

	for {
		ev, err := conv.Receive()
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch ev.Kind {
		case upstream.EventAudio:
			_ = b.writeFrame(protocol.Audio(base64.StdEncoding.EncodeToString(ev.Audio)))
		case upstream.EventText:
			_ = b.writeFrame(protocol.Text(ev.Text))
		case upstream.EventTurnComplete:
			return nil
		}
	}
}

func (b *Bridge) setConversation(conv upstream.Conversation) {
	b.convMu.Lock()
	b.conv = conv
	b.convMu.Unlock()
}

func (b *Bridge) closeUpstream() {
	b.convMu.Lock()
	conv := b.conv
	b.convMu.Unlock()
	if conv == nil {
		return
	}
	b.closeConv.Do(func() {
		_ = conv.Close()
	})
}

func (b *Bridge) closeQueue() {
	b.queueOnce.Do(func() {
		close(b.inbound)
	})
}

// writeFrame serializes one frame to the client, observing the
// liveness flag before touching the transport.
func (b *Bridge) writeFrame(frame protocol.ServerFrame) error {
	if !b.live.Load() {
		return errNotLive
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
	return b.conn.WriteJSON(frame)
}

func (b *Bridge) startPing(ctx context.Context) (stop func()) {
	ticker := time.NewTicker(b.cfg.PingInterval)
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-quit:
				return
			case <-ticker.C:
				deadline := time.Now().Add(b.cfg.WriteTimeout)
				if err := b.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(quit)
		<-done
	}
}

func errorMessage(err error) string {
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		return coreErr.Message
	}
	return err.Error()
}
