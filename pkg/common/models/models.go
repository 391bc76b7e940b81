package models

import "time"

// Event is the envelope for every message the pipeline publishes to Kafka.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// CaptureEvent is published after a raw payload lands in the store and
// consumed by the processor service to trigger normalization.
type CaptureEvent struct {
	RawDataID   uint   `json:"raw_data_id"`
	DataType    string `json:"data_type"`
	DataDate    string `json:"data_date"`
	BarID       int    `json:"bar_id"`
	RecordCount int    `json:"record_count"`
}
