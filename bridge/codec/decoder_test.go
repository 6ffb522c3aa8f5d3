package codec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/go-amqp"
	"github.com/stretchr/testify/require"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

func exampleReceived() *amqp.Message {
	contentType, contentEncoding := "text/plain", "utf-8"
	return &amqp.Message{
		Properties: &amqp.MessageProperties{
			MessageID:       "abc-123",
			CorrelationID:   "corr-1",
			ContentType:     &contentType,
			ContentEncoding: &contentEncoding,
		},
		ApplicationProperties: map[string]any{"k1": "v1", "k2": "v2"},
		Data:                  [][]byte{[]byte("hello")},
	}
}

// fakeDecoder returns a decoder whose collaborators inject f and track
// values and messages.
func fakeDecoder(f *faults) (*Decoder, *fakeValues, *fakeMessages) {
	values := newFakeValues(f)
	messages := &fakeMessages{faults: f}
	dec := NewDecoder(DecoderConfig{Values: values, NewMessage: messages.New})
	return dec, values, messages
}

func propertyMap(t *testing.T, msg Message) map[string]string {
	props := msg.Properties()
	require.NotNil(t, props)
	keys, values, err := props.Internals()
	require.NoError(t, err)
	out := make(map[string]string, len(keys))
	for i := range keys {
		out[keys[i]] = values[i]
	}
	return out
}

// Ensure a fully populated AMQP message decodes into an application message
// with body, identifiers and user properties.
func TestDecodeExampleMessage(t *testing.T) {
	dec := NewDecoder(DecoderConfig{})
	msg, err := dec.Decode(amqpvalue.Wrap(exampleReceived()))
	require.NoError(t, err)

	require.Equal(t, message.ContentTypeByteArray, msg.ContentType())
	body, err := msg.ByteArray()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), body)

	id, ok := msg.SystemProperty(message.MessageID)
	require.True(t, ok)
	require.Equal(t, "abc-123", id)
	id, ok = msg.SystemProperty(message.CorrelationID)
	require.True(t, ok)
	require.Equal(t, "corr-1", id)

	// Content properties are not decoded by default.
	_, ok = msg.SystemProperty(message.ContentTypeProperty)
	require.False(t, ok)
	_, ok = msg.SystemProperty(message.ContentEncoding)
	require.False(t, ok)

	require.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, propertyMap(t, msg))
	_, isMessage := msg.(*message.Message)
	require.True(t, isMessage)
}

// Ensure content-type and content-encoding are decoded when enabled.
func TestDecodeContentProperties(t *testing.T) {
	dec := NewDecoder(DecoderConfig{ContentProperties: true})
	msg, err := dec.Decode(amqpvalue.Wrap(exampleReceived()))
	require.NoError(t, err)

	v, ok := msg.SystemProperty(message.ContentTypeProperty)
	require.True(t, ok)
	require.Equal(t, "text/plain", v)
	v, ok = msg.SystemProperty(message.ContentEncoding)
	require.True(t, ok)
	require.Equal(t, "utf-8", v)
}

// Ensure a null message-id is skipped while the correlation-id is kept.
func TestDecodeNullMessageID(t *testing.T) {
	received := &amqp.Message{
		Properties: &amqp.MessageProperties{CorrelationID: "corr-1"},
		Data:       [][]byte{[]byte("hello")},
	}
	msg, err := NewDecoder(DecoderConfig{}).Decode(amqpvalue.Wrap(received))
	require.NoError(t, err)

	_, ok := msg.SystemProperty(message.MessageID)
	require.False(t, ok)
	id, ok := msg.SystemProperty(message.CorrelationID)
	require.True(t, ok)
	require.Equal(t, "corr-1", id)
}

// Ensure a message with only a data section decodes to a body with no
// properties.
func TestDecodeBodyOnly(t *testing.T) {
	dec, values, messages := fakeDecoder(noFaults())
	received := &fakeReceived{
		Message: amqpvalue.Wrap(&amqp.Message{Data: [][]byte{[]byte("hello")}}),
		owner:   values,
	}
	msg, err := dec.Decode(received)
	require.NoError(t, err)

	_, ok := msg.SystemProperty(message.MessageID)
	require.False(t, ok)
	_, ok = msg.SystemProperty(message.CorrelationID)
	require.False(t, ok)
	require.Empty(t, propertyMap(t, msg))
	require.Empty(t, values.leaks())
	require.Equal(t, 1, messages.created)
	require.Equal(t, 0, messages.destroyed)
}

// Ensure only the first data section becomes the body.
func TestDecodeFirstDataSection(t *testing.T) {
	received := &amqp.Message{Data: [][]byte{[]byte("first"), []byte("second")}}
	msg, err := NewDecoder(DecoderConfig{}).Decode(amqpvalue.Wrap(received))
	require.NoError(t, err)
	body, err := msg.ByteArray()
	require.NoError(t, err)
	require.Equal(t, []byte("first"), body)
}

// Ensure bodies other than data sections are rejected before a message is
// created.
func TestDecodeUnsupportedBodyType(t *testing.T) {
	tests := map[string]*amqp.Message{
		"value":    {Value: "hello"},
		"sequence": {Sequence: [][]any{{"hello"}}},
		"none":     {Properties: &amqp.MessageProperties{MessageID: "abc-123"}},
	}
	for name, received := range tests {
		t.Run(name, func(t *testing.T) {
			dec, values, messages := fakeDecoder(noFaults())
			msg, err := dec.Decode(&fakeReceived{Message: amqpvalue.Wrap(received), owner: values})
			require.Nil(t, msg)
			require.True(t, errors.Is(err, ErrUnsupportedBodyType))
			require.Equal(t, 0, messages.created)
			require.Empty(t, values.leaks())
		})
	}
}

// Ensure malformed present values fail the decode and destroy the message.
func TestDecodeMalformedValues(t *testing.T) {
	tests := map[string]func(*amqp.Message){
		"numeric message-id": func(m *amqp.Message) {
			m.Properties.MessageID = uint64(7)
		},
		"numeric correlation-id": func(m *amqp.Message) {
			m.Properties.CorrelationID = uint64(7)
		},
		"numeric property value": func(m *amqp.Message) {
			m.ApplicationProperties["k2"] = int64(5)
		},
		"invalid property key": func(m *amqp.Message) {
			m.ApplicationProperties["k\x01"] = "v"
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			dec, values, messages := fakeDecoder(noFaults())
			received := exampleReceived()
			mutate(received)

			msg, err := dec.Decode(&fakeReceived{Message: amqpvalue.Wrap(received), owner: values})
			require.Nil(t, msg)
			require.True(t, errors.Is(err, ErrDecoding), err.Error())
			require.Equal(t, 1, messages.created)
			require.Equal(t, 0, messages.leaked())
			require.Empty(t, values.leaks())
		})
	}
}

// Ensure an invalid property key surfaces the message layer error.
func TestDecodeInvalidPropertyKey(t *testing.T) {
	received := exampleReceived()
	received.ApplicationProperties["bad key\n"] = "v"
	_, err := NewDecoder(DecoderConfig{}).Decode(amqpvalue.Wrap(received))
	require.True(t, errors.Is(err, ErrDecoding))
	require.True(t, errors.Is(err, message.ErrInvalidProperty))
}

// Ensure a failure at any step either is skipped as optional or fails the
// decode with the right kind, destroying any created message and releasing
// every value.
func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		op      string
		at      int
		kind    error
		created int
		skipped message.SystemProperty
		noCause bool
	}{
		{op: "amqp.BodyType", kind: ErrDecoding},
		{op: "amqp.BodyData", kind: ErrDecoding},
		{op: "msg.New", kind: ErrCollaborator},
		{op: "amqp.Properties", kind: ErrDecoding, created: 1},
		{op: "props.MessageID", created: 1, skipped: message.MessageID},
		{op: "GetString", at: 1, kind: ErrDecoding, created: 1},
		{op: "msg.SetSystemProperty", at: 1, kind: ErrDecoding, created: 1},
		{op: "props.CorrelationID", created: 1, skipped: message.CorrelationID},
		{op: "GetString", at: 2, kind: ErrDecoding, created: 1},
		{op: "msg.SetSystemProperty", at: 2, kind: ErrDecoding, created: 1},
		{op: "msg.Properties", kind: ErrDecoding, created: 1, noCause: true},
		{op: "amqp.ApplicationProperties", kind: ErrDecoding, created: 1},
		{op: "DescribedValue", kind: ErrDecoding, created: 1},
		{op: "MapPairCount", kind: ErrDecoding, created: 1},
		{op: "MapPair", at: 2, kind: ErrDecoding, created: 1},
		{op: "GetString", at: 3, kind: ErrDecoding, created: 1},
		{op: "GetString", at: 6, kind: ErrDecoding, created: 1},
		{op: "map.AddOrUpdate", at: 2, kind: ErrDecoding, created: 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s#%d", tt.op, tt.at), func(t *testing.T) {
			f := newFaults(tt.op, tt.at)
			dec, values, messages := fakeDecoder(f)
			received := &fakeReceived{Message: amqpvalue.Wrap(exampleReceived()), owner: values}

			msg, err := dec.Decode(received)
			require.Empty(t, values.leaks())
			require.Equal(t, tt.created, messages.created)

			if tt.kind == nil {
				require.NoError(t, err)
				require.NotNil(t, msg)
				_, ok := msg.SystemProperty(tt.skipped)
				require.False(t, ok)
				require.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, propertyMap(t, msg))
				require.Equal(t, 0, messages.destroyed)
				return
			}
			require.Nil(t, msg)
			require.True(t, errors.Is(err, tt.kind), err.Error())
			require.Equal(t, !tt.noCause, errors.Is(err, errInjected))
			require.Equal(t, 0, messages.leaked())
		})
	}
}

// Ensure a factory that returns neither message nor error is reported.
func TestDecodeFactoryReturnsNothing(t *testing.T) {
	dec := NewDecoder(DecoderConfig{NewMessage: func([]byte) (Message, error) {
		return nil, nil
	}})
	msg, err := dec.Decode(amqpvalue.Wrap(exampleReceived()))
	require.Nil(t, msg)
	require.True(t, errors.Is(err, ErrCollaborator))
}

// Ensure bytes that are not AMQP sections fail to decode.
func TestDecodeBytesInvalid(t *testing.T) {
	msg, err := NewDecoder(DecoderConfig{}).DecodeBytes([]byte{0x00, 0x53, 0x99, 0x40})
	require.Nil(t, msg)
	require.True(t, errors.Is(err, ErrDecoding))
}
