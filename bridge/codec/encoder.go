// Package codec translates application messages to and from AMQP 1.0
// message sections.
//
// Encoding produces the properties section, the application-properties
// section (omitted when there are no user properties), and the data section,
// concatenated in a single buffer whose size is computed before it is
// allocated. Decoding rebuilds an application message from the data section,
// the message-id and correlation-id header fields, and the
// application-properties map.
package codec

import (
	"fmt"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/logger"
)

type sectionKind uint8

const (
	sectionProperties sectionKind = iota
	sectionApplicationProperties
	sectionData
)

func (k sectionKind) String() string {
	switch k {
	case sectionProperties:
		return "properties"
	case sectionApplicationProperties:
		return "application-properties"
	default:
		return "data"
	}
}

// section is a built AMQP section waiting to be serialized. value is nil for
// an application-properties section with no pairs.
type section struct {
	kind  sectionKind
	value amqpvalue.Value
	size  int
}

// Layout records the encoded size of each section.
type Layout struct {
	Properties            int
	ApplicationProperties int
	Data                  int
}

// Total returns the size of the whole encoding.
func (l Layout) Total() int {
	return l.Properties + l.ApplicationProperties + l.Data
}

// AllocFunc returns a buffer of exactly n bytes.
type AllocFunc func(n int) ([]byte, error)

// EncoderConfig configures an Encoder. Zero fields take defaults.
type EncoderConfig struct {
	// Values is the AMQP value layer. Defaults to the go-amqp layer.
	Values amqpvalue.Values
	// Allocate creates the output buffer. Defaults to make.
	Allocate AllocFunc
	// Logger receives failure details. Defaults to a silent logger.
	Logger logger.Logger
}

// Encoder converts application messages into AMQP section bytes. It holds no
// per-call state and may be shared between goroutines encoding independent
// messages.
type Encoder struct {
	values   amqpvalue.Values
	allocate AllocFunc
	log      logger.Logger
}

// NewEncoder creates an Encoder from config.
func NewEncoder(config EncoderConfig) *Encoder {
	e := &Encoder{
		values:   config.Values,
		allocate: config.Allocate,
		log:      config.Logger,
	}
	if e.values == nil {
		e.values = amqpvalue.NewLayer()
	}
	if e.allocate == nil {
		e.allocate = func(n int) ([]byte, error) {
			return make([]byte, n), nil
		}
	}
	if e.log == nil {
		e.log = logger.NewSilentLogger()
	}
	return e
}

// Encode returns the AMQP encoding of msg. On failure the returned buffer is
// nil and the error is a *Error.
func (e *Encoder) Encode(msg Message) ([]byte, error) {
	b, _, err := e.EncodeLayout(msg)
	return b, err
}

// EncodeLayout is Encode that also reports the size of each section.
func (e *Encoder) EncodeLayout(msg Message) ([]byte, Layout, error) {
	props, err := e.buildProperties(msg)
	if err != nil {
		return nil, Layout{}, err
	}
	defer e.release(props)

	appProps, err := e.buildApplicationProperties(msg)
	if err != nil {
		return nil, Layout{}, err
	}
	defer e.release(appProps)

	data, err := e.buildData(msg)
	if err != nil {
		return nil, Layout{}, err
	}
	defer e.release(data)

	layout := Layout{
		Properties:            props.size,
		ApplicationProperties: appProps.size,
		Data:                  data.size,
	}
	b, err := e.allocateBuffer(layout.Total())
	if err != nil {
		return nil, Layout{}, err
	}

	buf := newOutputBuffer(b)
	for _, s := range []*section{props, appProps, data} {
		if s.size == 0 {
			continue
		}
		if err := e.values.Encode(s.value, buf.PutRawBytes); err != nil {
			e.log.Errorf("Failed to encode %s section at offset %d: %v", s.kind, buf.Len(), err)
			return nil, Layout{}, newError(KindEncoding, "encode "+s.kind.String(), err)
		}
	}

	out, err := buf.Bytes()
	if err != nil {
		e.log.Errorf("Encoded sections do not fill the buffer: %v", err)
		return nil, Layout{}, newError(KindEncoding, "encode", err)
	}
	return out, layout, nil
}

// sized computes the encoded size of value and pairs them in a section. The
// value is released if the size cannot be computed.
func (e *Encoder) sized(kind sectionKind, value amqpvalue.Value) (*section, error) {
	size, err := e.values.EncodedSize(value)
	if err != nil {
		e.values.Release(value)
		e.log.Errorf("Failed to get encoded size of %s section: %v", kind, err)
		return nil, newError(KindEncoding, "get "+kind.String()+" encoded size", err)
	}
	return &section{kind: kind, value: value, size: size}, nil
}

func (e *Encoder) allocateBuffer(n int) ([]byte, error) {
	if n <= 0 {
		e.log.Errorf("Refusing to allocate a %d byte buffer", n)
		return nil, newError(KindAllocation, "allocate", fmt.Errorf("invalid size %d", n))
	}
	b, err := e.allocate(n)
	if err == nil && len(b) != n {
		err = fmt.Errorf("allocator returned %d bytes, want %d", len(b), n)
	}
	if err != nil {
		e.log.Errorf("Allocation of %d bytes failed: %v", n, err)
		return nil, newError(KindAllocation, "allocate", err)
	}
	return b, nil
}

func (e *Encoder) release(s *section) {
	if s.value != nil {
		e.values.Release(s.value)
	}
}
