package types

import "errors"

var (
	ErrParse         = errors.New("malformed expression")
	ErrNoExpression  = errors.New("missing expression")
	ErrNoReply       = errors.New("no target message")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrStale         = errors.New("root message is stale")
	ErrPersistence   = errors.New("record store failure")
	ErrTransport     = errors.New("messenger failure")
	ErrForbidden     = errors.New("forbidden")
)
