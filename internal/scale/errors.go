package scale

import "fmt"

// ErrorKind classifies a decode failure.
type ErrorKind uint8

const (
	KindUnknownType ErrorKind = iota + 1
	KindBufferUnderrun
	KindMalformedLength
	KindTrailingBytes
	KindInvalidValue
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownType:
		return "unknown_type"
	case KindBufferUnderrun:
		return "buffer_underrun"
	case KindMalformedLength:
		return "malformed_length"
	case KindTrailingBytes:
		return "trailing_bytes"
	case KindInvalidValue:
		return "invalid_value"
	default:
		return "unknown"
	}
}

// DecodeError is returned for any failure while decoding SCALE input.
// Offset is the reader position at which the failure was detected.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	Detail string
}

// Sentinels for errors.Is checks. Only Kind is compared.
var (
	ErrUnknownType     = &DecodeError{Kind: KindUnknownType}
	ErrBufferUnderrun  = &DecodeError{Kind: KindBufferUnderrun}
	ErrMalformedLength = &DecodeError{Kind: KindMalformedLength}
	ErrTrailingBytes   = &DecodeError{Kind: KindTrailingBytes}
	ErrInvalidValue    = &DecodeError{Kind: KindInvalidValue}
)

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

// Is matches any DecodeError of the same kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// Errorf builds a DecodeError of the given kind.
func Errorf(kind ErrorKind, offset int, format string, args ...interface{}) error {
	return newError(kind, offset, format, args...)
}
