// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotSubscribed = errors.New("not subscribed to channel")
	ErrBadChannel    = errors.New("unknown channel")
)
