package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"backoffice/internal/documents"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// DocumentChangedMessage announces a new version of a document. It carries
// no content: the consumer fetches the document it names from the record
// store, so a late message can never overwrite a newer export.
type DocumentChangedMessage struct {
	ID        int64          `json:"id"`
	Kind      documents.Kind `json:"kind"`
	Version   int64          `json:"version"`
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewDocumentChangedMessage(id int64, kind documents.Kind, version int64, action string) DocumentChangedMessage {
	return DocumentChangedMessage{
		ID:        id,
		Kind:      kind,
		Version:   version,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m DocumentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentChangedMessageFromJSON decodes and checks a message body.
func DocumentChangedMessageFromJSON(data []byte) (DocumentChangedMessage, error) {
	var msg DocumentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ID <= 0 {
		return msg, fmt.Errorf("message has no document id")
	}
	if _, err := documents.ParseKind(string(msg.Kind)); err != nil {
		return msg, fmt.Errorf("message kind %q: %w", msg.Kind, err)
	}
	if msg.Action != ActionUpsert && msg.Action != ActionDelete {
		return msg, fmt.Errorf("unknown message action %q", msg.Action)
	}
	return msg, nil
}
