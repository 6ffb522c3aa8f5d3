package amqpvalue

import "github.com/Azure/go-amqp"

// properties wraps the go-amqp header properties. A nil p stands for a
// received message without a properties section.
type properties struct {
	p        *amqp.MessageProperties
	released bool
}

func (c *properties) check() error {
	if c.released {
		return ErrReleased
	}
	if c.p == nil {
		return ErrNoProperties
	}
	return nil
}

func (c *properties) SetMessageID(v Value) error {
	if err := c.check(); err != nil {
		return err
	}
	sv, err := scalar(v)
	if err != nil {
		return err
	}
	c.p.MessageID = sv.raw
	return nil
}

func (c *properties) SetCorrelationID(v Value) error {
	if err := c.check(); err != nil {
		return err
	}
	sv, err := scalar(v)
	if err != nil {
		return err
	}
	c.p.CorrelationID = sv.raw
	return nil
}

func (c *properties) SetContentType(s string) error {
	if err := c.check(); err != nil {
		return err
	}
	c.p.ContentType = &s
	return nil
}

func (c *properties) SetContentEncoding(s string) error {
	if err := c.check(); err != nil {
		return err
	}
	c.p.ContentEncoding = &s
	return nil
}

func (c *properties) MessageID() (Value, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &value{typ: typeOf(c.p.MessageID), raw: c.p.MessageID, borrowed: true}, nil
}

func (c *properties) CorrelationID() (Value, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &value{typ: typeOf(c.p.CorrelationID), raw: c.p.CorrelationID, borrowed: true}, nil
}

func (c *properties) ContentType() (string, bool, error) {
	if err := c.check(); err != nil {
		return "", false, err
	}
	if c.p.ContentType == nil {
		return "", false, nil
	}
	return *c.p.ContentType, true, nil
}

func (c *properties) ContentEncoding() (string, bool, error) {
	if err := c.check(); err != nil {
		return "", false, err
	}
	if c.p.ContentEncoding == nil {
		return "", false, nil
	}
	return *c.p.ContentEncoding, true, nil
}

func (c *properties) Release() {
	c.released = true
}
