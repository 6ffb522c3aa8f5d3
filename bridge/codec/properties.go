package codec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

// buildProperties derives the AMQP properties section from the message's
// system properties. Absent properties are left unset.
func (e *Encoder) buildProperties(msg Message) (*section, error) {
	props, err := e.values.NewProperties()
	if err != nil {
		e.log.Errorf("Failed to create properties container: %v", err)
		return nil, newError(KindEncoding, "create properties", err)
	}
	defer props.Release()

	for _, p := range message.SystemProperties {
		v, ok := msg.SystemProperty(p)
		if !ok {
			continue
		}
		if err := e.setProperty(props, p, v); err != nil {
			e.log.Errorf("Failed to set %s property: %v", p, err)
			return nil, newError(KindEncoding, "set "+p.String(), err)
		}
	}

	value, err := e.values.NewPropertiesSection(props)
	if err != nil {
		e.log.Errorf("Failed to create properties section: %v", err)
		return nil, newError(KindEncoding, "create properties section", err)
	}
	return e.sized(sectionProperties, value)
}

func (e *Encoder) setProperty(props amqpvalue.Properties, p message.SystemProperty, v string) error {
	switch p {
	case message.MessageID:
		return e.setStringValue(v, props.SetMessageID)
	case message.CorrelationID:
		return e.setStringValue(v, props.SetCorrelationID)
	case message.ContentTypeProperty:
		return props.SetContentType(v)
	case message.ContentEncoding:
		return props.SetContentEncoding(v)
	default:
		return fmt.Errorf("unknown system property %s", p)
	}
}

// setStringValue wraps s in a string value for the duration of set.
func (e *Encoder) setStringValue(s string, set func(amqpvalue.Value) error) error {
	v, err := e.values.NewString(s)
	if err != nil {
		return errors.Wrap(err, "failed to create string value")
	}
	defer e.values.Release(v)
	return set(v)
}

// readProperties copies message-id and correlation-id from the received
// message onto msg. Both are optional: a failed read or a null value is
// skipped, but a value that is present must convert and store cleanly.
func (d *Decoder) readProperties(received amqpvalue.Message, msg Message) error {
	props, err := received.Properties()
	if err != nil {
		d.log.Errorf("Failed to get properties from amqp message: %v", err)
		return newError(KindDecoding, "get properties", err)
	}
	defer props.Release()

	if err := d.readStringProperty(msg, message.MessageID, props.MessageID); err != nil {
		return err
	}
	if err := d.readStringProperty(msg, message.CorrelationID, props.CorrelationID); err != nil {
		return err
	}
	if d.contentProperties {
		return d.readContentProperties(msg, props)
	}
	return nil
}

func (d *Decoder) readStringProperty(msg Message, p message.SystemProperty,
	get func() (amqpvalue.Value, error)) error {

	v, err := get()
	if err != nil {
		d.log.Infof("Failed to get %s from amqp message (%v); skipping optional property", p, err)
		return nil
	}
	if v == nil || v.Type() == amqpvalue.TypeNull {
		return nil
	}
	s, err := d.values.GetString(v)
	if err != nil {
		d.log.Errorf("Failed to read %s value: %v", p, err)
		return newError(KindDecoding, "get "+p.String(), err)
	}
	if err := msg.SetSystemProperty(p, s); err != nil {
		d.log.Errorf("Failed to set %s on message: %v", p, err)
		return newError(KindDecoding, "set "+p.String(), err)
	}
	return nil
}

func (d *Decoder) readContentProperties(msg Message, props amqpvalue.Properties) error {
	fields := []struct {
		p   message.SystemProperty
		get func() (string, bool, error)
	}{
		{message.ContentTypeProperty, props.ContentType},
		{message.ContentEncoding, props.ContentEncoding},
	}
	for _, f := range fields {
		v, ok, err := f.get()
		if err != nil {
			d.log.Infof("Failed to get %s from amqp message (%v); skipping optional property", f.p, err)
			continue
		}
		if !ok {
			continue
		}
		if err := msg.SetSystemProperty(f.p, v); err != nil {
			d.log.Errorf("Failed to set %s on message: %v", f.p, err)
			return newError(KindDecoding, "set "+f.p.String(), err)
		}
	}
	return nil
}
