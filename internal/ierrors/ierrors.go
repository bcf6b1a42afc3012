// Package ierrors defines the error taxonomy from the design's error
// handling section: ConfigError, TransientIO, DataError, and FatalDBError.
// Components wrap the underlying cause with these sentinels so callers can
// branch with errors.Is/errors.As instead of matching strings.
package ierrors

import "fmt"

// ConfigError is fatal and must fail before the main loop starts: an
// unknown chain, an empty RPC peer set after validation, a missing
// required environment variable.
type ConfigError struct {
	Msg   string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// TransientIO covers RPC timeouts, websocket drops, DB connection blips,
// and decode failures on an RPC payload. The unit of work is abandoned and
// retried on the next pass; it is never propagated above the worker loop.
type TransientIO struct {
	Msg   string
	Cause error
}

func (e *TransientIO) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient I/O: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("transient I/O: %s", e.Msg)
}

func (e *TransientIO) Unwrap() error { return e.Cause }

// DataError covers a tx-count mismatch, a receipts-count mismatch, or a
// malformed event. The specific block is skipped this pass with no partial
// commit, and is re-fetched next pass.
type DataError struct {
	Msg    string
	Height int64
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error at height %d: %s", e.Height, e.Msg)
}

// FatalDBError covers pool exhaustion and schema mismatch. It is surfaced
// as a panic from the persistence layer so the supervising process
// restarts the binary.
type FatalDBError struct {
	Msg   string
	Cause error
}

func (e *FatalDBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal db error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("fatal db error: %s", e.Msg)
}

func (e *FatalDBError) Unwrap() error { return e.Cause }

// Panic raises a FatalDBError as a panic, per the design's propagation
// policy for unrecoverable persistence failures.
func Panic(msg string, cause error) {
	panic(&FatalDBError{Msg: msg, Cause: cause})
}
