package codec

import (
	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/logger"
)

// DecoderConfig configures a Decoder. Zero fields take defaults.
type DecoderConfig struct {
	// Values is the AMQP value layer. Defaults to the go-amqp layer.
	Values amqpvalue.Values
	// NewMessage creates the application message from the received body.
	// Defaults to NewByteArrayMessage.
	NewMessage MessageFactory
	// Logger receives failure details. Defaults to a silent logger.
	Logger logger.Logger
	// ContentProperties also copies content-type and content-encoding onto
	// the decoded message.
	ContentProperties bool
}

// Decoder converts received AMQP messages into application messages. It
// holds no per-call state.
type Decoder struct {
	values            amqpvalue.Values
	newMessage        MessageFactory
	log               logger.Logger
	contentProperties bool
}

// NewDecoder creates a Decoder from config.
func NewDecoder(config DecoderConfig) *Decoder {
	d := &Decoder{
		values:            config.Values,
		newMessage:        config.NewMessage,
		log:               config.Logger,
		contentProperties: config.ContentProperties,
	}
	if d.values == nil {
		d.values = amqpvalue.NewLayer()
	}
	if d.newMessage == nil {
		d.newMessage = NewByteArrayMessage
	}
	if d.log == nil {
		d.log = logger.NewSilentLogger()
	}
	return d
}

// Decode builds an application message from received. The message is
// returned only when every step succeeds; a message created along the way is
// destroyed before a failure is returned.
func (d *Decoder) Decode(received amqpvalue.Message) (Message, error) {
	msg, err := d.extractBody(received)
	if err != nil {
		return nil, err
	}
	if err := d.readProperties(received, msg); err != nil {
		d.log.Errorf("Failed reading properties of the amqp message: %v", err)
		msg.Destroy()
		return nil, err
	}
	if err := d.readApplicationProperties(received, msg); err != nil {
		d.log.Errorf("Failed reading application properties of the amqp message: %v", err)
		msg.Destroy()
		return nil, err
	}
	return msg, nil
}

// DecodeBytes parses the AMQP sections in b with go-amqp and decodes them.
func (d *Decoder) DecodeBytes(b []byte) (Message, error) {
	received, err := amqpvalue.Parse(b)
	if err != nil {
		d.log.Errorf("Failed to parse amqp message: %v", err)
		return nil, newError(KindDecoding, "parse", err)
	}
	return d.Decode(received)
}
