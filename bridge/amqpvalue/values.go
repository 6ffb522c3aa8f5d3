// Package amqpvalue is the AMQP 1.0 value layer the codec drives: typed
// values, the header properties container, section construction, encoded
// size computation, serialization, and read access to received messages.
//
// Values handed out by the layer are owned by the caller until released.
// Release is infallible; using a released value is an error.
package amqpvalue

import "github.com/pkg/errors"

// Type is the runtime type of a Value.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeNull
	TypeString
	TypeULong
	TypeBinary
	TypeMap
	TypeProperties
	TypeApplicationProperties
	TypeData
	TypeOther
)

var typeNames = map[Type]string{
	TypeUnknown:               "unknown",
	TypeNull:                  "null",
	TypeString:                "string",
	TypeULong:                 "ulong",
	TypeBinary:                "binary",
	TypeMap:                   "map",
	TypeProperties:            "properties",
	TypeApplicationProperties: "application-properties",
	TypeData:                  "data",
	TypeOther:                 "other",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "invalid"
}

// BodyType is the kind of body section a received message carries.
type BodyType uint8

const (
	BodyTypeNone BodyType = iota
	BodyTypeData
	BodyTypeValue
	BodyTypeSequence
)

func (b BodyType) String() string {
	switch b {
	case BodyTypeData:
		return "data"
	case BodyTypeValue:
		return "value"
	case BodyTypeSequence:
		return "sequence"
	default:
		return "none"
	}
}

var (
	// ErrReleased is returned when a released value or container is used.
	ErrReleased = errors.New("amqp value already released")

	// ErrNoProperties is returned when a header field is read from a message
	// that carries no properties section.
	ErrNoProperties = errors.New("message has no properties section")
)

// Value is an AMQP value.
type Value interface {
	Type() Type
}

// EmitFunc receives the bytes produced while serializing a value.
type EmitFunc func(b []byte) error

// Values constructs, inspects, and serializes AMQP values.
type Values interface {
	NewString(s string) (Value, error)
	NewMap() (Value, error)
	SetMapValue(m, key, value Value) error
	MapPairCount(m Value) (int, error)
	// MapPair returns new key and value values the caller must release.
	MapPair(m Value, i int) (key, value Value, err error)
	GetString(v Value) (string, error)

	NewProperties() (Properties, error)
	NewPropertiesSection(p Properties) (Value, error)
	NewApplicationPropertiesSection(m Value) (Value, error)
	NewData(b []byte) (Value, error)
	// DescribedValue returns the value inside a described section in place.
	// It shares storage with v and must not be released separately.
	DescribedValue(v Value) (Value, error)

	EncodedSize(v Value) (int, error)
	Encode(v Value, emit EmitFunc) error

	Release(v Value)
}

// Properties is the AMQP header properties container.
type Properties interface {
	SetMessageID(v Value) error
	SetCorrelationID(v Value) error
	SetContentType(s string) error
	SetContentEncoding(s string) error

	// MessageID and CorrelationID return values owned by the container.
	MessageID() (Value, error)
	CorrelationID() (Value, error)
	ContentType() (string, bool, error)
	ContentEncoding() (string, bool, error)

	Release()
}

// Message is a received AMQP message.
type Message interface {
	BodyType() (BodyType, error)
	// BodyData returns the bytes of the i-th data section without copying.
	BodyData(i int) ([]byte, error)
	// Properties returns a container the caller must release.
	Properties() (Properties, error)
	// ApplicationProperties returns nil and no error when the message has no
	// application-properties section. A non-nil result must be released.
	ApplicationProperties() (Value, error)
}
