package client

import "beacon/internal/types"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	PID     int    `json:"pid"`
}

type SessionsResponse struct {
	Sessions []*types.Session `json:"sessions"`
}

type SendInputRequest struct {
	Text string `json:"text"`
}

type SendInputResponse struct {
	Delivered bool `json:"delivered"`
}

type PendingInputResponse struct {
	Input   string `json:"input,omitempty"`
	Pending bool   `json:"pending"`
}

type ReplyRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

type ReplyResponse struct {
	Message string `json:"message"`
}
