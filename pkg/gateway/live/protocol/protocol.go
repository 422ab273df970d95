// Package protocol defines the JSON frame schema spoken between the
// browser client and the gateway over the live WebSocket, plus the
// strict decoding of client frames.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Client frame types.
const (
	TypeAudio = "audio"
	TypeTTS   = "tts"
)

// Server frame types.
const (
	TypeConnected    = "connected"
	TypeText         = "text"
	TypeTurnComplete = "turnComplete"
	TypeInterrupted  = "interrupted"
	TypeProgress     = "progress"
	TypeComplete     = "complete"
	TypeError        = "error"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// ClientAudioFrame carries one base64-encoded PCM frame from the
// client microphone.
type ClientAudioFrame struct {
	Type    string `json:"type"`
	DataB64 string `json:"data"`
}

// ClientTTSRequest asks the gateway to speak the given text.
type ClientTTSRequest struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DecodeClientMessage parses one inbound text frame into a typed
// client message. Unknown types and invalid JSON yield a DecodeError;
// callers log and ignore those without closing the connection.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case TypeAudio:
		var msg ClientAudioFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio frame", "")
		}
		if strings.TrimSpace(msg.DataB64) == "" {
			return nil, badRequest("audio.data is required", "data")
		}
		return msg, nil
	case TypeTTS:
		var msg ClientTTSRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid tts frame", "")
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, badRequest("tts.text is required", "text")
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ServerFrame is one outbound frame to the client. Fields are
// populated per Type; the zero values are omitted on the wire.
type ServerFrame struct {
	Type    string `json:"type"`
	DataB64 string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// Text frames reuse the "data" field for their payload, matching the
// audio frame shape.
func Connected() ServerFrame { return ServerFrame{Type: TypeConnected} }

func Audio(b64 string) ServerFrame { return ServerFrame{Type: TypeAudio, DataB64: b64} }

func Text(s string) ServerFrame { return ServerFrame{Type: TypeText, DataB64: s} }

func TurnComplete() ServerFrame { return ServerFrame{Type: TypeTurnComplete} }

func Interrupted() ServerFrame { return ServerFrame{Type: TypeInterrupted} }

func Progress(cur, total int) ServerFrame {
	return ServerFrame{Type: TypeProgress, Current: cur, Total: total}
}

func Complete() ServerFrame { return ServerFrame{Type: TypeComplete} }

func Error(message string) ServerFrame { return ServerFrame{Type: TypeError, Message: message} }
