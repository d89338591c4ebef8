package auth

import "errors"

var (
	errKeysNotLoaded = errors.New("auth: keys not loaded")
	errTimeout       = errors.New("auth: receive timeout")
	errKeyMismatch   = errors.New("auth: peer key mismatch")
	errProtocol      = errors.New("auth: unexpected reply to local key")
)
