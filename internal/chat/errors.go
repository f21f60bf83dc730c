package chat

import "errors"

var (
	ErrInvalidChannel   = errors.New("chat: unknown channel")
	ErrEmptyMessage     = errors.New("chat: empty message")
	ErrEmptyFileName    = errors.New("chat: file name is required")
	ErrInvalidFileSize  = errors.New("chat: file size must not be negative")
	ErrAlreadyRecording = errors.New("chat: voice note already recording")
	ErrClosed           = errors.New("chat: store closed")
)
