package codec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

// buildData wraps the message body in a data section. Text bodies are
// carried as their UTF-8 bytes.
func (e *Encoder) buildData(msg Message) (*section, error) {
	var body []byte
	switch ct := msg.ContentType(); ct {
	case message.ContentTypeByteArray:
		b, err := msg.ByteArray()
		if err != nil {
			e.log.Errorf("Failed getting the byte array body of the message: %v", err)
			return nil, newError(KindEncoding, "get byte array body", err)
		}
		body = b
	case message.ContentTypeString:
		s, err := msg.Text()
		if err != nil {
			e.log.Errorf("Failed getting the string body of the message: %v", err)
			return nil, newError(KindEncoding, "get string body", err)
		}
		body = []byte(s)
	default:
		e.log.Errorf("Cannot encode message with content type %s", ct)
		return nil, newError(KindUnsupportedContentType, "get body",
			fmt.Errorf("content type %s", ct))
	}

	value, err := e.values.NewData(body)
	if err != nil {
		e.log.Errorf("Failed to create data section: %v", err)
		return nil, newError(KindEncoding, "create data section", err)
	}
	return e.sized(sectionData, value)
}

// extractBody creates the application message from the first data section
// of the received message.
func (d *Decoder) extractBody(received amqpvalue.Message) (Message, error) {
	bodyType, err := received.BodyType()
	if err != nil {
		d.log.Errorf("Failed to get the body type of the amqp message: %v", err)
		return nil, newError(KindDecoding, "get body type", err)
	}
	if bodyType != amqpvalue.BodyTypeData {
		d.log.Errorf("Cannot decode amqp message with %s body", bodyType)
		return nil, newError(KindUnsupportedBodyType, "get body type",
			fmt.Errorf("body type %s", bodyType))
	}

	body, err := received.BodyData(0)
	if err != nil {
		d.log.Errorf("Failed to get the body of the amqp message: %v", err)
		return nil, newError(KindDecoding, "get body data", err)
	}

	msg, err := d.newMessage(body)
	if err == nil && msg == nil {
		err = errors.New("message factory returned no message")
	}
	if err != nil {
		d.log.Errorf("Failed creating the application message: %v", err)
		return nil, newError(KindCollaborator, "create message", err)
	}
	return msg, nil
}
