package chat

import "errors"

// Command-boundary errors. Nothing invalid ever reaches the wire.
var (
	ErrEmptyUsername = errors.New("chat: username is empty")
	ErrEmptyBody     = errors.New("chat: message body is empty")
	ErrNoRecipient   = errors.New("chat: no recipient selected")
	ErrNoTarget      = errors.New("chat: no message targeted")
	ErrNotConnected  = errors.New("chat: not connected")
)

// Transport errors.
var (
	ErrConnectionFailed = errors.New("chat: connection failed")
	ErrSendBufferFull   = errors.New("chat: send buffer full")
)

// ErrUnknownMessage marks a reaction or receipt referencing an id absent
// from the local log. Legitimate after a reconnect reset, so the session
// logs and absorbs it.
var ErrUnknownMessage = errors.New("chat: unknown message id")
