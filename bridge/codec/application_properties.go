package codec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

var errNoPropertyMap = errors.New("message has no property map")

// buildApplicationProperties derives the application-properties section from
// the message's user properties. An empty map yields a section with no value
// and size zero.
func (e *Encoder) buildApplicationProperties(msg Message) (*section, error) {
	props := msg.Properties()
	if props == nil {
		e.log.Errorf("Failed to get property map from message")
		return nil, newError(KindEncoding, "get property map", errNoPropertyMap)
	}
	keys, values, err := props.Internals()
	if err != nil {
		e.log.Errorf("Failed reading the message property map: %v", err)
		return nil, newError(KindEncoding, "read property map", err)
	}
	if len(keys) != len(values) {
		err := fmt.Errorf("%d keys but %d values", len(keys), len(values))
		e.log.Errorf("Inconsistent message property map: %v", err)
		return nil, newError(KindEncoding, "read property map", err)
	}
	if len(keys) == 0 {
		return &section{kind: sectionApplicationProperties}, nil
	}

	m, err := e.values.NewMap()
	if err != nil {
		e.log.Errorf("Failed to create map value: %v", err)
		return nil, newError(KindEncoding, "create map", err)
	}
	defer e.values.Release(m)

	for i := range keys {
		if err := e.setMapPair(m, keys[i], values[i]); err != nil {
			e.log.Errorf("Failed to add property %q to map: %v", keys[i], err)
			return nil, newError(KindEncoding, "set map value", err)
		}
	}

	value, err := e.values.NewApplicationPropertiesSection(m)
	if err != nil {
		e.log.Errorf("Failed to create application-properties section: %v", err)
		return nil, newError(KindEncoding, "create application-properties section", err)
	}
	return e.sized(sectionApplicationProperties, value)
}

func (e *Encoder) setMapPair(m amqpvalue.Value, key, value string) error {
	k, err := e.values.NewString(key)
	if err != nil {
		return errors.Wrap(err, "failed to create key")
	}
	defer e.values.Release(k)

	v, err := e.values.NewString(value)
	if err != nil {
		return errors.Wrap(err, "failed to create value")
	}
	defer e.values.Release(v)

	return e.values.SetMapValue(m, k, v)
}

// readApplicationProperties copies every application property of the
// received message into msg's property map. A message without an
// application-properties section contributes nothing.
func (d *Decoder) readApplicationProperties(received amqpvalue.Message, msg Message) error {
	target := msg.Properties()
	if target == nil {
		d.log.Errorf("Failed to get property map from message")
		return newError(KindDecoding, "get property map", errNoPropertyMap)
	}

	app, err := received.ApplicationProperties()
	if err != nil {
		d.log.Errorf("Failed reading the amqp message application properties: %v", err)
		return newError(KindDecoding, "get application properties", err)
	}
	if app == nil {
		return nil
	}
	defer d.values.Release(app)

	m, err := d.values.DescribedValue(app)
	if err == nil && m == nil {
		err = errors.New("no described value")
	}
	if err != nil {
		d.log.Errorf("Failed getting the map of amqp application properties: %v", err)
		return newError(KindDecoding, "get application properties map", err)
	}

	count, err := d.values.MapPairCount(m)
	if err != nil {
		d.log.Errorf("Failed reading the number of application properties: %v", err)
		return newError(KindDecoding, "get map pair count", err)
	}
	for i := 0; i < count; i++ {
		if err := d.copyMapPair(m, i, target); err != nil {
			d.log.Errorf("Failed copying application property %d: %v", i, err)
			return newError(KindDecoding, "copy application property", err)
		}
	}
	return nil
}

func (d *Decoder) copyMapPair(m amqpvalue.Value, i int, target message.Properties) error {
	k, v, err := d.values.MapPair(m, i)
	if k != nil {
		defer d.values.Release(k)
	}
	if v != nil {
		defer d.values.Release(v)
	}
	if err != nil {
		return errors.Wrap(err, "failed to get key/value pair")
	}

	key, err := d.values.GetString(k)
	if err != nil {
		return errors.Wrap(err, "failed to read key")
	}
	value, err := d.values.GetString(v)
	if err != nil {
		return errors.Wrapf(err, "failed to read value of %q", key)
	}
	if err := target.AddOrUpdate(key, value); err != nil {
		return errors.Wrapf(err, "failed to store %q", key)
	}
	return nil
}
