package engine

import "io"

// Event is one inbound occurrence from the transport. Exactly three
// shapes exist: free text, a file upload, and a structured selection.
type Event interface {
	Actor() int64
}

// TextEvent is a free-text message from an actor.
type TextEvent struct {
	ActorID int64
	Text    string
}

func (e TextEvent) Actor() int64 { return e.ActorID }

// UploadEvent is a file handed over by the transport. Size is the
// transport-declared length; the engine still clamps the actual stream.
type UploadEvent struct {
	ActorID int64
	Name    string
	Size    int64
	Content io.Reader
}

func (e UploadEvent) Actor() int64 { return e.ActorID }

// CallbackEvent is a structured selection, already decoded from its raw
// callback string by ParseAction.
type CallbackEvent struct {
	ActorID int64
	Action  Action
}

func (e CallbackEvent) Actor() int64 { return e.ActorID }
