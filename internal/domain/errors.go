package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure class.
var (
	// ErrConfiguration indicates a missing mandatory resource or an unsupported option.
	ErrConfiguration = errors.New("configuration error")
	// ErrCache indicates an unreadable, corrupt or incompatible snapshot.
	ErrCache = errors.New("cache error")
	// ErrDecode indicates a malformed input record.
	ErrDecode = errors.New("decode error")
	// ErrSegmentation indicates the model could not process a token.
	ErrSegmentation = errors.New("segmentation error")
)

// ConfigError describes a configuration problem detected before any stream I/O.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, msg)
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// CacheError describes a failure to read or write a snapshot.
type CacheError struct {
	Op   string // "load", "save", "stat"
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() []error {
	return []error{ErrCache, e.Err}
}

// DecodeError describes a malformed record in the input stream.
type DecodeError struct {
	Format  string
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", e.Format, e.Line, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// SegmentationError describes a token the model failed to segment.
type SegmentationError struct {
	Token   string
	Message string
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("cannot segment %q: %s", e.Token, e.Message)
}

func (e *SegmentationError) Unwrap() error {
	return ErrSegmentation
}
