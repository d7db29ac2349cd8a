// Package xerrors defines the error kinds shared across the signature
// engine, so callers can classify a failure with errors.Is instead of
// string matching.
package xerrors

import "errors"

var (
	// InvalidParameter: unsupported w, unknown parameter-set name, unsupported hash width.
	InvalidParameter = errors.New("invalid parameter")
	// NotInitialised: sign/verify called without a loaded key.
	NotInitialised = errors.New("not initialised")
	// Exhausted: sign called when index == 2^h.
	Exhausted = errors.New("ots key space exhausted")
	// OutOfRange: Merkle leaf/path access outside [0, N).
	OutOfRange = errors.New("index out of range")
	// MalformedInput: serialisation/deserialisation fails or corrupt state-file content.
	MalformedInput = errors.New("malformed input")
	// PersistenceFailure: state store cannot durably save a monotonic advance.
	PersistenceFailure = errors.New("persistence failure")
)
