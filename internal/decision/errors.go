package decision

import "errors"

var (
	ErrEmptyOptions = errors.New("empty option set")
	ErrUnknownKind  = errors.New("unknown decision kind")
)
