package upstream

import (
	"context"
	"io"
	"sync"

	"google.golang.org/genai"

	"github.com/vango-go/voicebridge/pkg/core"
)

// System instructions for the two gateway modes.
const (
	VoiceSystemInstruction = "You are a helpful and friendly AI voice assistant. " +
		"Keep your responses concise and natural-sounding. " +
		"Respond in the same language the user speaks to you. " +
		"Be warm, engaging, and conversational."

	TTSSystemInstruction = "You are a text-to-speech assistant. " +
		"When given text, read it aloud naturally and expressively. " +
		"Match the language of the input text. " +
		"Do not add any commentary, just read the text as given."
)

const pcmMIMEType = "audio/pcm"

type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string
}

// Client dials Gemini Live conversations for one model/instruction
// pair. One client per mode is shared by every connection.
type Client struct {
	genai *genai.Client
	cfg   Config
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewUpstreamError("failed to initialize upstream client: " + err.Error())
	}
	return &Client{genai: gc, cfg: cfg}, nil
}

// Connect opens a live session with audio response modality and the
// client's fixed system instruction.
func (c *Client) Connect(ctx context.Context) (Conversation, error) {
	session, err := c.genai.Live.Connect(ctx, c.cfg.Model, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.cfg.SystemInstruction}},
		},
	})
	if err != nil {
		return nil, core.NewUpstreamError("upstream connect failed: " + err.Error())
	}
	return &conversation{session: session}, nil
}

// Dialer adapts the client to the Dialer function type.
func (c *Client) Dialer() Dialer {
	return func(ctx context.Context) (Conversation, error) {
		return c.Connect(ctx)
	}
}

type conversation struct {
	session *genai.Session

	// One upstream message can expand into several events; extras are
	// buffered until the next Receive call.
	pending []Event

	closeOnce sync.Once
	closeErr  error
}

func (c *conversation) SendAudio(pcm []byte) error {
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: pcm, MIMEType: pcmMIMEType},
	})
}

func (c *conversation) SendText(text string, endTurn bool) error {
	return c.session.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: text}},
		}},
		TurnComplete: genai.Ptr(endTurn),
	})
}

func (c *conversation) Receive() (Event, error) {
	for {
		if len(c.pending) > 0 {
			ev := c.pending[0]
			c.pending = c.pending[1:]
			return ev, nil
		}

		msg, err := c.session.Receive()
		if err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, core.NewUpstreamError(err.Error())
		}
		c.pending = translate(msg)
	}
}

// translate maps one upstream message to its client-facing events,
// preserving part order within a model turn.
func translate(msg *genai.LiveServerMessage) []Event {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}
	sc := msg.ServerContent

	var out []Event
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out = append(out, Event{Kind: EventAudio, Audio: part.InlineData.Data})
			}
			if part.Text != "" {
				out = append(out, Event{Kind: EventText, Text: part.Text})
			}
		}
	}
	if sc.Interrupted {
		out = append(out, Event{Kind: EventInterrupted})
	}
	if sc.TurnComplete {
		out = append(out, Event{Kind: EventTurnComplete})
	}
	return out
}

func (c *conversation) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.session.Close()
	})
	return c.closeErr
}
