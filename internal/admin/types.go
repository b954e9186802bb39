package admin

import (
	"encoding/json"
	"strings"
)

// Endpoint paths relative to the API root.
const (
	listPath   = "/notifications/admin/notifications/"
	sendPath   = "/notifications/admin/send/"
	deletePath = "/notifications/admin/notifications/%d/"
)

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   errorField      `json:"error"`
}

// DeleteResult is the data payload of a successful delete.
type DeleteResult struct {
	Message string `json:"message"`
}

// errorField accepts both `"error": "text"` and `"error": {"message": "text"}`.
type errorField string

func (e *errorField) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = errorField(s)
		return nil
	}

	var obj struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		msg := obj.Message
		if msg == "" {
			msg = obj.Detail
		}
		*e = errorField(msg)
		return nil
	}

	// Anything else is kept verbatim so the operator still sees it.
	*e = errorField(strings.TrimSpace(string(b)))
	return nil
}

// detailBody is the shape of framework-level auth failures, which do not
// use the success envelope.
type detailBody struct {
	Detail string `json:"detail"`
}
