package shared

import "encoding/json"

// UsageRecord is the per-user daily counter. A record only ever holds the
// count for LastRequestDate.
type UsageRecord struct {
	UserID          string `json:"userId"`
	LastRequestDate string `json:"lastRequestDate"`
	RequestCount    int64  `json:"requestCount"`
}

type AskRequest struct {
	History json.RawMessage `json:"history"`
}

type AskResponse struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
