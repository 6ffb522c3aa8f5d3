package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

const exampleDocument = `
message_id: abc-123
correlation_id: corr-1
content_type: text/plain
content_encoding: utf-8
properties:
  k1: v1
  k2: v2
body: hello
`

func str(s string) *string {
	return &s
}

// Ensure a YAML document parses into all of its fields.
func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(exampleDocument))
	require.NoError(t, err)
	require.Equal(t, "abc-123", *doc.MessageID)
	require.Equal(t, "corr-1", *doc.CorrelationID)
	require.Equal(t, "text/plain", *doc.ContentType)
	require.Equal(t, "utf-8", *doc.ContentEncoding)
	require.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, doc.Properties)
	require.Equal(t, "hello", doc.Body)
	require.Equal(t, BodyEncoding(""), doc.BodyEncoding)
}

// Ensure JSON input is accepted and unknown fields are rejected.
func TestParseDocumentJSON(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"message_id": "m", "body": "aGk=", "body_encoding": "base64"}`))
	require.NoError(t, err)
	require.Equal(t, "m", *doc.MessageID)
	require.Equal(t, BodyBase64, doc.BodyEncoding)

	_, err = ParseDocument([]byte("body: hi\nbogus: 1\n"))
	require.Error(t, err)
}

// Ensure a document builds a message with its body, system properties and
// user properties.
func TestDocumentMessage(t *testing.T) {
	doc, err := ParseDocument([]byte(exampleDocument))
	require.NoError(t, err)
	msg, err := doc.Message()
	require.NoError(t, err)
	defer msg.Destroy()

	require.Equal(t, message.ContentTypeString, msg.ContentType())
	text, err := msg.Text()
	require.NoError(t, err)
	require.Equal(t, "hello", text)

	id, ok := msg.MessageID()
	require.True(t, ok)
	require.Equal(t, "abc-123", id)
	ct, ok := msg.SystemProperty(message.ContentTypeProperty)
	require.True(t, ok)
	require.Equal(t, "text/plain", ct)
	require.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, msg.PropertyMap().ToMap())
}

// Ensure base64 bodies become byte array messages and bad input is reported.
func TestDocumentMessageBase64(t *testing.T) {
	doc := &Document{Body: "AAH/", BodyEncoding: BodyBase64}
	msg, err := doc.Message()
	require.NoError(t, err)
	b, err := msg.ByteArray()
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x01, 0xff}, b)

	_, err = (&Document{Body: "!!", BodyEncoding: BodyBase64}).Message()
	require.Error(t, err)

	_, err = (&Document{Body: "x", BodyEncoding: "hex"}).Message()
	require.Error(t, err)
}

// Ensure invalid property keys are rejected when building a message.
func TestDocumentMessageInvalidProperty(t *testing.T) {
	doc := &Document{Body: "x", Properties: map[string]string{"bad\tkey": "v"}}
	_, err := doc.Message()
	require.Error(t, err)
}

// Ensure NewDocument picks text for UTF-8 bodies and base64 otherwise.
func TestNewDocument(t *testing.T) {
	msg, err := message.NewFromByteArray([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, msg.SetSystemProperty(message.CorrelationID, "corr-1"))
	require.NoError(t, msg.PropertyMap().AddOrUpdate("k1", "v1"))

	doc, err := NewDocument(msg)
	require.NoError(t, err)
	require.Nil(t, doc.MessageID)
	require.Equal(t, "corr-1", *doc.CorrelationID)
	require.Equal(t, "hello", doc.Body)
	require.Equal(t, BodyText, doc.BodyEncoding)
	require.Equal(t, map[string]string{"k1": "v1"}, doc.Properties)

	msg, err = message.NewFromByteArray([]byte{0xff, 0xfe})
	require.NoError(t, err)
	doc, err = NewDocument(msg)
	require.NoError(t, err)
	require.Equal(t, "//4=", doc.Body)
	require.Equal(t, BodyBase64, doc.BodyEncoding)
	require.Nil(t, doc.Properties)
}

// Ensure documents marshal to both output formats and parse back.
func TestMarshalDocument(t *testing.T) {
	doc := &Document{
		MessageID:  str("abc-123"),
		Properties: map[string]string{"k1": "v1"},
		Body:       "hello",
	}
	for _, format := range []string{FormatYAML, FormatJSON} {
		b, err := MarshalDocument(doc, format)
		require.NoError(t, err)
		parsed, err := ParseDocument(b)
		require.NoError(t, err)
		require.Equal(t, doc, parsed)
	}

	_, err := MarshalDocument(doc, "xml")
	require.Error(t, err)
}
