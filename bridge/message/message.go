// Package message implements the application message abstraction the bridge
// translates to and from AMQP: an immutable body, the fixed set of system
// properties, and a map of user-defined properties.
package message

import (
	"errors"
	"fmt"
)

// ContentType discriminates the representation of a message body.
type ContentType uint8

const (
	// ContentTypeUnknown is the zero value and cannot be encoded.
	ContentTypeUnknown ContentType = iota
	// ContentTypeByteArray marks a raw byte body.
	ContentTypeByteArray
	// ContentTypeString marks a text body.
	ContentTypeString
)

// String returns a readable name for the content type.
func (c ContentType) String() string {
	switch c {
	case ContentTypeByteArray:
		return "bytearray"
	case ContentTypeString:
		return "string"
	default:
		return "unknown"
	}
}

var (
	// ErrDestroyed is returned by operations on a destroyed message.
	ErrDestroyed = errors.New("message destroyed")

	// ErrWrongContentType is returned when the body is read with the accessor
	// for the other representation.
	ErrWrongContentType = errors.New("body has a different content type")
)

// Message is an application message. The zero value is not usable; create
// one with NewFromByteArray or NewFromString.
type Message struct {
	contentType ContentType
	bytes       []byte
	text        string
	system      [numSystemProperties]*string
	properties  *Map
	destroyed   bool
}

// NewFromByteArray creates a message whose body is a copy of b.
func NewFromByteArray(b []byte) (*Message, error) {
	body := make([]byte, len(b))
	copy(body, b)
	return &Message{
		contentType: ContentTypeByteArray,
		bytes:       body,
		properties:  NewMap(),
	}, nil
}

// NewFromString creates a message with a text body.
func NewFromString(s string) (*Message, error) {
	return &Message{
		contentType: ContentTypeString,
		text:        s,
		properties:  NewMap(),
	}, nil
}

// ContentType returns the body representation.
func (m *Message) ContentType() ContentType {
	return m.contentType
}

// ByteArray returns the raw body. It fails if the body is text.
func (m *Message) ByteArray() ([]byte, error) {
	if m.destroyed {
		return nil, ErrDestroyed
	}
	if m.contentType != ContentTypeByteArray {
		return nil, ErrWrongContentType
	}
	return m.bytes, nil
}

// Text returns the text body. It fails if the body is raw bytes.
func (m *Message) Text() (string, error) {
	if m.destroyed {
		return "", ErrDestroyed
	}
	if m.contentType != ContentTypeString {
		return "", ErrWrongContentType
	}
	return m.text, nil
}

// Body returns the body as bytes regardless of its representation.
func (m *Message) Body() []byte {
	if m.contentType == ContentTypeString {
		return []byte(m.text)
	}
	return m.bytes
}

// SystemProperty returns the value of p and whether it is set.
func (m *Message) SystemProperty(p SystemProperty) (string, bool) {
	if !p.Valid() || m.system[p] == nil {
		return "", false
	}
	return *m.system[p], true
}

// SetSystemProperty sets p to value.
func (m *Message) SetSystemProperty(p SystemProperty, value string) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if !p.Valid() {
		return fmt.Errorf("unknown system property %s", p)
	}
	m.system[p] = &value
	return nil
}

// ClearSystemProperty unsets p.
func (m *Message) ClearSystemProperty(p SystemProperty) {
	if p.Valid() {
		m.system[p] = nil
	}
}

// MessageID returns the message-id system property.
func (m *Message) MessageID() (string, bool) {
	return m.SystemProperty(MessageID)
}

// CorrelationID returns the correlation-id system property.
func (m *Message) CorrelationID() (string, bool) {
	return m.SystemProperty(CorrelationID)
}

// Properties returns the user property map, or nil once the message has been
// destroyed.
func (m *Message) Properties() Properties {
	if m.destroyed {
		return nil
	}
	return m.properties
}

// PropertyMap returns the concrete property map.
func (m *Message) PropertyMap() *Map {
	return m.properties
}

// Destroy releases the message. Further mutation fails with ErrDestroyed.
func (m *Message) Destroy() {
	m.destroyed = true
	m.bytes = nil
	m.text = ""
	m.properties = NewMap()
}

// Destroyed reports whether Destroy has been called.
func (m *Message) Destroyed() bool {
	return m.destroyed
}
