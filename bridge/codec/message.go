package codec

import "github.com/amqpbridge-io/amqpbridge/bridge/message"

// Message is the application message the codec reads when encoding and
// populates when decoding. *message.Message implements it.
type Message interface {
	ContentType() message.ContentType
	ByteArray() ([]byte, error)
	Text() (string, error)

	SystemProperty(p message.SystemProperty) (string, bool)
	SetSystemProperty(p message.SystemProperty, value string) error

	// Properties returns the user property map, or nil if it is unavailable.
	Properties() message.Properties

	Destroy()
}

// MessageFactory creates an application message from a received body.
type MessageFactory func(body []byte) (Message, error)

// NewByteArrayMessage is the default MessageFactory.
func NewByteArrayMessage(body []byte) (Message, error) {
	msg, err := message.NewFromByteArray(body)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
