package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DatasetUpdatedMessage announces that a new dataset snapshot was imported.
// Consumers drop their cached snapshot; the data itself is read from storage.
type DatasetUpdatedMessage struct {
	Source    string    `json:"source"`
	ImportID  int64     `json:"import_id"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetUpdatedMessage creates a message stamped with the current time.
func NewDatasetUpdatedMessage(source string, importID int64, rows int) *DatasetUpdatedMessage {
	return &DatasetUpdatedMessage{
		Source:    source,
		ImportID:  importID,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetUpdatedMessageFromJSON decodes a message body.
func DatasetUpdatedMessageFromJSON(data []byte) (*DatasetUpdatedMessage, error) {
	var msg DatasetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ImportID <= 0 {
		return nil, errors.New("dataset update without import id")
	}
	return &msg, nil
}
