package api

import "moderation/pkg/contact"

type CheckRequest struct {
	Text string `json:"text"`
}

type CheckResponse struct {
	Flagged bool `json:"flagged"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

type ContactResponse struct {
	Status string              `json:"status"`
	Errors contact.FieldErrors `json:"errors,omitempty"`
}
