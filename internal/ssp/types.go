package ssp

import (
	"encoding/json"
	"fmt"
)

// MessageTemplate is the reference record behind the admin message template grid.
type MessageTemplate struct {
	ID           int    `json:"id"`
	Name         string `json:"name" validate:"required,max=80"`
	Description  string `json:"description,omitempty" validate:"max=150"`
	Subject      string `json:"subject" validate:"required,max=250"`
	Body         string `json:"body" validate:"required"`
	ObjectStatus string `json:"objectStatus,omitempty"`
	CreatedDate  int64  `json:"createdDate,omitempty"`
	ModifiedDate int64  `json:"modifiedDate,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps the server's payload so
// unknown fields survive a round trip through TemplateData.
func (t *MessageTemplate) UnmarshalJSON(b []byte) error {
	type plain MessageTemplate
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = MessageTemplate(p)
	t.raw = append(json.RawMessage(nil), b...)
	return nil
}

// Raw returns the payload the record was decoded from, or nil for records
// built locally.
func (t MessageTemplate) Raw() json.RawMessage { return t.raw }

// pagedResp is the SSP envelope for list endpoints.
type pagedResp struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Results int               `json:"results"`
	Rows    []MessageTemplate `json:"rows"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Op     string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %s", e.Op, e.Status)
}
