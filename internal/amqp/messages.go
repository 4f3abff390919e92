package amqp

import (
	"encoding/json"
	"time"

	"videojobs/internal/core"
)

// JobRecordedMessage announces a job appended to the log. It carries the full
// record so consumers never read the Log Store back.
type JobRecordedMessage struct {
	Position        int       `json:"position"`
	Date            string    `json:"date"`
	VideoType       string    `json:"video_type"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int64     `json:"price"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewJobRecordedMessage builds the message for the record stored at position
// (1-based).
func NewJobRecordedMessage(position int, rec core.JobRecord) *JobRecordedMessage {
	return &JobRecordedMessage{
		Position:        position,
		Date:            rec.Date.String(),
		VideoType:       rec.VideoType,
		DurationMinutes: rec.DurationMinutes,
		Price:           rec.Price.Pesos,
		Timestamp:       time.Now(),
	}
}

// Record converts the message back to a job record. An unparsable date
// becomes the missing marker.
func (m *JobRecordedMessage) Record() core.JobRecord {
	date, _ := core.ParseDate(m.Date)
	return core.JobRecord{
		Date:            date,
		VideoType:       m.VideoType,
		DurationMinutes: m.DurationMinutes,
		Price:           core.Money{Pesos: m.Price},
	}
}

// ToJSON converts the message to JSON bytes
func (m *JobRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// JobRecordedMessageFromJSON creates a message from JSON bytes
func JobRecordedMessageFromJSON(data []byte) (*JobRecordedMessage, error) {
	var msg JobRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
