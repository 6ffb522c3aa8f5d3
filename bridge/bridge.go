// Package bridge converts application messages to and from AMQP 1.0 message
// bytes, and reads and writes the YAML and JSON documents used to describe
// messages on disk.
package bridge

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
	"github.com/nats-io/nuid"
	"github.com/pkg/errors"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/codec"
	"github.com/amqpbridge-io/amqpbridge/bridge/logger"
)

// Bridge wraps a codec Encoder and Decoder configured from a Config.
type Bridge struct {
	config  *Config
	log     logger.Logger
	encoder *codec.Encoder
	decoder *codec.Decoder
}

// New creates a Bridge. A nil config uses the defaults.
func New(config *Config) *Bridge {
	if config == nil {
		config = NewDefaultConfig()
	}
	log := logger.NewLogger(config.LogLevel)
	log.Silent(config.LogSilent)
	return NewWithLogger(config, log)
}

// NewWithLogger creates a Bridge that logs to log.
func NewWithLogger(config *Config, log logger.Logger) *Bridge {
	if config == nil {
		config = NewDefaultConfig()
	}
	values := amqpvalue.NewLayer()
	return &Bridge{
		config: config,
		log:    log,
		encoder: codec.NewEncoder(codec.EncoderConfig{
			Values: values,
			Logger: log,
		}),
		decoder: codec.NewDecoder(codec.DecoderConfig{
			Values:            values,
			Logger:            log,
			ContentProperties: config.Decode.ContentProperties,
		}),
	}
}

// Config returns the Bridge settings.
func (b *Bridge) Config() *Config {
	return b.config
}

// Logger returns the Bridge logger.
func (b *Bridge) Logger() logger.Logger {
	return b.log
}

// Encode returns the AMQP encoding of msg.
func (b *Bridge) Encode(msg codec.Message) ([]byte, error) {
	return b.encoder.Encode(msg)
}

// EncodeLayout returns the AMQP encoding of msg and its section sizes.
func (b *Bridge) EncodeLayout(msg codec.Message) ([]byte, codec.Layout, error) {
	return b.encoder.EncodeLayout(msg)
}

// Decode parses AMQP message bytes into an application message. The caller
// owns the returned message.
func (b *Bridge) Decode(wire []byte) (codec.Message, error) {
	return b.decoder.DecodeBytes(wire)
}

// EncodeDocument applies the configured message defaults to a copy of doc
// and encodes it.
func (b *Bridge) EncodeDocument(doc *Document) ([]byte, codec.Layout, error) {
	d := b.withDefaults(doc)
	msg, err := d.Message()
	if err != nil {
		return nil, codec.Layout{}, err
	}
	defer msg.Destroy()
	return b.encoder.EncodeLayout(msg)
}

// DecodeDocument decodes AMQP message bytes into a Document.
func (b *Bridge) DecodeDocument(wire []byte) (*Document, error) {
	msg, err := b.decoder.DecodeBytes(wire)
	if err != nil {
		return nil, err
	}
	defer msg.Destroy()
	return NewDocument(msg)
}

// EncodeFile reads a message document from in and atomically writes its AMQP
// encoding to out.
func (b *Bridge) EncodeFile(in, out string) (codec.Layout, error) {
	raw, err := os.ReadFile(in)
	if err != nil {
		return codec.Layout{}, errors.Wrap(err, "failed to read message document")
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return codec.Layout{}, err
	}
	wire, layout, err := b.EncodeDocument(doc)
	if err != nil {
		return codec.Layout{}, err
	}
	if err := atomic.WriteFile(out, bytes.NewReader(wire)); err != nil {
		return codec.Layout{}, errors.Wrap(err, "failed to write amqp message")
	}
	b.log.Debugf("Encoded %s to %s (%d bytes)", in, out, layout.Total())
	return layout, nil
}

// DecodeFile reads AMQP message bytes from in and atomically writes the
// decoded document to out in the configured output format.
func (b *Bridge) DecodeFile(in, out string) (*Document, error) {
	wire, err := os.ReadFile(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read amqp message")
	}
	doc, err := b.DecodeDocument(wire)
	if err != nil {
		return nil, err
	}
	raw, err := MarshalDocument(doc, b.config.OutputFormat)
	if err != nil {
		return nil, err
	}
	if err := atomic.WriteFile(out, bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "failed to write message document")
	}
	b.log.Debugf("Decoded %s to %s", in, out)
	return doc, nil
}

func (b *Bridge) withDefaults(doc *Document) *Document {
	d := *doc
	if d.MessageID == nil && b.config.Message.AutoID {
		id := nuid.Next()
		d.MessageID = &id
	}
	if d.ContentType == nil && b.config.Message.ContentType != "" {
		ct := b.config.Message.ContentType
		d.ContentType = &ct
	}
	if d.ContentEncoding == nil && b.config.Message.ContentEncoding != "" {
		ce := b.config.Message.ContentEncoding
		d.ContentEncoding = &ce
	}
	return &d
}
