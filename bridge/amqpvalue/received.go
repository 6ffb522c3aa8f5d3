package amqpvalue

import (
	"fmt"

	"github.com/Azure/go-amqp"
	"github.com/pkg/errors"
)

var errNilMessage = errors.New("nil amqp message")

// Received adapts a go-amqp message to the Message interface.
type Received struct {
	msg *amqp.Message
}

// Parse decodes AMQP message sections from b.
func Parse(b []byte) (*Received, error) {
	msg := new(amqp.Message)
	if err := msg.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "failed to parse amqp message")
	}
	return &Received{msg: msg}, nil
}

// Wrap adapts a message already decoded by go-amqp, for example one returned
// by a receiver link.
func Wrap(msg *amqp.Message) *Received {
	return &Received{msg: msg}
}

// AMQP returns the underlying go-amqp message.
func (r *Received) AMQP() *amqp.Message {
	return r.msg
}

// BodyType reports which body section the message carries.
func (r *Received) BodyType() (BodyType, error) {
	if r.msg == nil {
		return BodyTypeNone, errNilMessage
	}
	switch {
	case len(r.msg.Data) > 0:
		return BodyTypeData, nil
	case r.msg.Value != nil:
		return BodyTypeValue, nil
	case len(r.msg.Sequence) > 0:
		return BodyTypeSequence, nil
	default:
		return BodyTypeNone, nil
	}
}

// BodyData returns the i-th data section in place.
func (r *Received) BodyData(i int) ([]byte, error) {
	if r.msg == nil {
		return nil, errNilMessage
	}
	if i < 0 || i >= len(r.msg.Data) {
		return nil, fmt.Errorf("data section %d out of range [0, %d)", i, len(r.msg.Data))
	}
	return r.msg.Data[i], nil
}

// Properties returns the header properties. A message without a properties
// section yields a container whose reads fail with ErrNoProperties.
func (r *Received) Properties() (Properties, error) {
	if r.msg == nil {
		return nil, errNilMessage
	}
	return &properties{p: r.msg.Properties}, nil
}

// ApplicationProperties returns the application-properties section, or nil
// if the message has none. Pairs are indexed in key order.
func (r *Received) ApplicationProperties() (Value, error) {
	if r.msg == nil {
		return nil, errNilMessage
	}
	if r.msg.ApplicationProperties == nil {
		return nil, nil
	}
	return &value{
		typ:   TypeApplicationProperties,
		pairs: pairsFromMap(r.msg.ApplicationProperties),
	}, nil
}
