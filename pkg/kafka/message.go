package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the transport-level event envelope.
type Message struct {
	Key       string            // Partition key (e.g. appointment id)
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string // Event metadata
	Topic     string
	Timestamp time.Time
}

// Header keys shared by all producers.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
)

type MessageBuilder struct {
	msg Message
	err error
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers: map[string]string{
				HeaderEventID:   uuid.NewString(),
				HeaderTimestamp: time.Now().UTC().Format(time.RFC3339),
			},
			Timestamp: time.Now().UTC(),
		},
	}
}

func (b *MessageBuilder) WithKey(key string) *MessageBuilder {
	b.msg.Key = key
	return b
}

func (b *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	b.msg.Headers[HeaderEventType] = eventType
	return b
}

func (b *MessageBuilder) WithSource(source string) *MessageBuilder {
	b.msg.Headers[HeaderSource] = source
	return b
}

func (b *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	b.msg.Headers[HeaderSchemaVersion] = version
	return b
}

func (b *MessageBuilder) WithJSONPayload(payload any) *MessageBuilder {
	data, err := json.Marshal(payload)
	if err != nil {
		b.err = fmt.Errorf("failed to encode payload: %w", err)
		return b
	}
	b.msg.Value = data
	return b
}

func (b *MessageBuilder) Build() (Message, error) {
	if b.err != nil {
		return Message{}, b.err
	}
	if b.msg.Key == "" {
		return Message{}, fmt.Errorf("message key cannot be empty")
	}
	if len(b.msg.Value) == 0 {
		return Message{}, fmt.Errorf("message payload cannot be empty")
	}
	return b.msg, nil
}
