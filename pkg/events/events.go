// Package events defines the messages published to Kafka after each AI request.
package events

import "time"

// UsageEvent describes one finished AI request, completed or failed.
type UsageEvent struct {
	RequestID      string    `json:"request_id"`
	UserID         uint      `json:"user_id"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	RequestType    string    `json:"request_type"`
	Status         string    `json:"status"`
	InputText      string    `json:"input_text"`
	OutputText     string    `json:"output_text"`
	TokensUsed     int       `json:"tokens_used"`
	Cost           float64   `json:"cost"`
	ProcessingTime float64   `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}
