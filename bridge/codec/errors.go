package codec

import "fmt"

// Kind classifies codec failures.
type Kind uint8

const (
	// KindAllocation is a failure to create the output buffer.
	KindAllocation Kind = iota + 1
	// KindEncoding is any AMQP value construction, field-set, size, or
	// serialization failure while encoding.
	KindEncoding
	// KindDecoding is any retrieval or extraction failure while decoding.
	KindDecoding
	// KindUnsupportedContentType is an application message body that is
	// neither bytes nor text.
	KindUnsupportedContentType
	// KindUnsupportedBodyType is a received message whose body is not data.
	KindUnsupportedBodyType
	// KindCollaborator is a failure signaled by the application message layer
	// and surfaced without further classification.
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindAllocation:
		return "allocation error"
	case KindEncoding:
		return "encoding error"
	case KindDecoding:
		return "decoding error"
	case KindUnsupportedContentType:
		return "unsupported content type"
	case KindUnsupportedBodyType:
		return "unsupported body type"
	case KindCollaborator:
		return "collaborator error"
	default:
		return "unknown error"
	}
}

// Error is returned by every failing Encode and Decode. Op names the step
// that failed and Err, when set, is the cause reported by a collaborator.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for matching with errors.Is.
var (
	ErrAllocation             = &Error{Kind: KindAllocation}
	ErrEncoding               = &Error{Kind: KindEncoding}
	ErrDecoding               = &Error{Kind: KindDecoding}
	ErrUnsupportedContentType = &Error{Kind: KindUnsupportedContentType}
	ErrUnsupportedBodyType    = &Error{Kind: KindUnsupportedBodyType}
	ErrCollaborator           = &Error{Kind: KindCollaborator}
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the collaborator cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
