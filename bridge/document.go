package bridge

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/amqpbridge-io/amqpbridge/bridge/codec"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

// BodyEncoding says how a Document body is written.
type BodyEncoding string

const (
	// BodyText is a body carried as a UTF-8 string.
	BodyText BodyEncoding = "text"
	// BodyBase64 is a binary body carried as standard base64.
	BodyBase64 BodyEncoding = "base64"
)

// Document is the YAML or JSON form of an application message. Unset system
// properties are nil; an empty string is a present but empty property.
type Document struct {
	MessageID       *string           `yaml:"message_id,omitempty" json:"message_id,omitempty"`
	CorrelationID   *string           `yaml:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	ContentType     *string           `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	ContentEncoding *string           `yaml:"content_encoding,omitempty" json:"content_encoding,omitempty"`
	Properties      map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
	Body            string            `yaml:"body" json:"body"`
	BodyEncoding    BodyEncoding      `yaml:"body_encoding,omitempty" json:"body_encoding,omitempty"`
}

// systemProperty returns the document field holding p.
func (d *Document) systemProperty(p message.SystemProperty) **string {
	switch p {
	case message.MessageID:
		return &d.MessageID
	case message.CorrelationID:
		return &d.CorrelationID
	case message.ContentTypeProperty:
		return &d.ContentType
	case message.ContentEncoding:
		return &d.ContentEncoding
	default:
		return nil
	}
}

// Message builds an application message from the document. Text bodies
// produce string messages and base64 bodies produce byte array messages.
func (d *Document) Message() (*message.Message, error) {
	var (
		msg *message.Message
		err error
	)
	switch d.BodyEncoding {
	case "", BodyText:
		msg, err = message.NewFromString(d.Body)
	case BodyBase64:
		body, decodeErr := base64.StdEncoding.DecodeString(d.Body)
		if decodeErr != nil {
			return nil, errors.Wrap(decodeErr, "failed to decode base64 body")
		}
		msg, err = message.NewFromByteArray(body)
	default:
		return nil, fmt.Errorf("unknown body encoding %q", d.BodyEncoding)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}

	for _, p := range message.SystemProperties {
		v := *d.systemProperty(p)
		if v == nil {
			continue
		}
		if err := msg.SetSystemProperty(p, *v); err != nil {
			msg.Destroy()
			return nil, errors.Wrapf(err, "failed to set %s", p)
		}
	}

	// Sorted so that encoded output does not depend on map iteration.
	keys := make([]string, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := msg.PropertyMap().AddOrUpdate(k, d.Properties[k]); err != nil {
			msg.Destroy()
			return nil, errors.Wrap(err, "failed to set property")
		}
	}
	return msg, nil
}

// NewDocument captures msg as a Document. Bodies that are valid UTF-8 are
// written as text, anything else as base64.
func NewDocument(msg codec.Message) (*Document, error) {
	var body []byte
	switch msg.ContentType() {
	case message.ContentTypeString:
		s, err := msg.Text()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read body")
		}
		body = []byte(s)
	default:
		b, err := msg.ByteArray()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read body")
		}
		body = b
	}

	doc := new(Document)
	if utf8.Valid(body) {
		doc.Body = string(body)
		doc.BodyEncoding = BodyText
	} else {
		doc.Body = base64.StdEncoding.EncodeToString(body)
		doc.BodyEncoding = BodyBase64
	}

	for _, p := range message.SystemProperties {
		if v, ok := msg.SystemProperty(p); ok {
			*doc.systemProperty(p) = &v
		}
	}

	props := msg.Properties()
	if props == nil {
		return nil, errors.New("message has no property map")
	}
	keys, values, err := props.Internals()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read properties")
	}
	if len(keys) > 0 {
		doc.Properties = make(map[string]string, len(keys))
		for i := range keys {
			doc.Properties[keys[i]] = values[i]
		}
	}
	return doc, nil
}

// ParseDocument reads a Document from YAML. JSON input is accepted as YAML.
// Unknown fields are rejected.
func ParseDocument(b []byte) (*Document, error) {
	doc := new(Document)
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse message document")
	}
	return doc, nil
}

// MarshalDocument writes doc in the given output format.
func MarshalDocument(doc *Document, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal message document")
		}
		return append(b, '\n'), nil
	case FormatYAML, "":
		b, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal message document")
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
