package message

import "fmt"

// SystemProperty identifies one of the well-known header fields carried by a
// message. The set is closed; anything else belongs in the property map.
type SystemProperty uint8

const (
	// MessageID is the application-assigned message identifier.
	MessageID SystemProperty = iota
	// CorrelationID links a message to the one it replies to.
	CorrelationID
	// ContentTypeProperty is the MIME type of the body.
	ContentTypeProperty
	// ContentEncoding is the encoding applied to the body.
	ContentEncoding

	numSystemProperties
)

// SystemProperties lists every recognized system property in wire order.
var SystemProperties = []SystemProperty{
	MessageID,
	CorrelationID,
	ContentTypeProperty,
	ContentEncoding,
}

var systemPropertyNames = [numSystemProperties]string{
	MessageID:           "message-id",
	CorrelationID:       "correlation-id",
	ContentTypeProperty: "content-type",
	ContentEncoding:     "content-encoding",
}

// Valid reports whether p is one of the recognized system properties.
func (p SystemProperty) Valid() bool {
	return p < numSystemProperties
}

// String returns the AMQP field name of the property.
func (p SystemProperty) String() string {
	if !p.Valid() {
		return fmt.Sprintf("system-property(%d)", uint8(p))
	}
	return systemPropertyNames[p]
}
