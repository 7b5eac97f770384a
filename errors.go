package stash

import "errors"

var (
	// ErrEmptyFile indicates the backing file exists but has no content.
	// An empty store is represented as "{}", never as a zero-byte file, so
	// an empty file means the store was corrupted rather than never created.
	ErrEmptyFile = errors.New("store file is empty")

	// ErrMalformedPayload indicates an encrypted payload that does not match
	// the <ivHex>:<cipherHex> format: missing delimiter, invalid hex, wrong
	// initialization vector length, or misaligned ciphertext.
	ErrMalformedPayload = errors.New("malformed encrypted payload")

	// ErrDecryptFailed indicates the ciphertext did not decrypt to a valid
	// payload, typically a wrong passphrase or corrupted ciphertext.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrIndexOutOfRange indicates an Array access outside its bounds.
	ErrIndexOutOfRange = errors.New("array index out of range")
)
