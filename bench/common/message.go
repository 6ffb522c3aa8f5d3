package common

import (
	"crypto/rand"
	"fmt"

	"github.com/nats-io/nuid"

	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

// PreGenerateMessages creates all messages upfront so that benchmarks
// measure the codec without data generation time. Each message carries a
// unique message-id, a correlation-id and numProps user properties.
func PreGenerateMessages(numMessages, bodySize, numProps int) ([]*message.Message, error) {
	messages := make([]*message.Message, 0, numMessages)

	// Pre-generate the payload template once
	payload := make([]byte, bodySize)
	rand.Read(payload)

	for i := 0; i < numMessages; i++ {
		msg, err := message.NewFromByteArray(generatePayload(bodySize, payload))
		if err != nil {
			DestroyMessages(messages)
			return nil, err
		}
		messages = append(messages, msg)
		if err := msg.SetSystemProperty(message.MessageID, nuid.Next()); err != nil {
			DestroyMessages(messages)
			return nil, err
		}
		if err := msg.SetSystemProperty(message.CorrelationID, fmt.Sprintf("corr-%d", i)); err != nil {
			DestroyMessages(messages)
			return nil, err
		}
		for j := 0; j < numProps; j++ {
			key := fmt.Sprintf("key-%d", j)
			value := fmt.Sprintf("value-%d-%d", i, j)
			if err := msg.PropertyMap().AddOrUpdate(key, value); err != nil {
				DestroyMessages(messages)
				return nil, err
			}
		}
	}
	return messages, nil
}

// generatePayload creates a new payload by copying and slightly modifying the template.
// This is more efficient than calling crypto/rand for every message.
func generatePayload(size int, template []byte) []byte {
	payload := make([]byte, size)
	copy(payload, template)
	// Add some variation by modifying a few bytes
	if size > 8 {
		rand.Read(payload[:8])
	}
	return payload
}

// DestroyMessages destroys every message.
func DestroyMessages(messages []*message.Message) {
	for _, msg := range messages {
		msg.Destroy()
	}
}
