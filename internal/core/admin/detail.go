package admin

import (
	"bytes"
	"context"
	"encoding/json"

	"ssp-admin/internal/ssp"
)

// OptionalDetail is the decoded preview payload. Present is false when the
// server answered with an empty body, a JSON null, or something that does
// not decode as a template; such results still open a popup.
type OptionalDetail struct {
	Template ssp.MessageTemplate
	Present  bool
}

// DecodeDetail turns a preview response body into an OptionalDetail.
func DecodeDetail(body []byte) OptionalDetail {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return OptionalDetail{}
	}
	var t ssp.MessageTemplate
	if err := json.Unmarshal(trimmed, &t); err != nil {
		return OptionalDetail{}
	}
	return OptionalDetail{Template: t, Present: true}
}

// FetchResult is the outcome of one preview fetch. Err set means failure;
// otherwise Detail holds the decoded payload.
type FetchResult struct {
	Generation uint64
	ID         int
	Detail     OptionalDetail
	Err        error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool { return r.Err == nil }

// DetailFetcher retrieves the preview body for one template.
type DetailFetcher interface {
	PreviewMessageTemplate(ctx context.Context, id int) ([]byte, error)
}

// PendingFetch is a preview request issued by the controller but not yet
// run. Run blocks and is meant to execute off the UI loop.
type PendingFetch struct {
	Generation uint64
	ID         int
	fetcher    DetailFetcher
}

// Run performs the fetch and decodes the body.
func (p PendingFetch) Run(ctx context.Context) FetchResult {
	res := FetchResult{Generation: p.Generation, ID: p.ID}
	body, err := p.fetcher.PreviewMessageTemplate(ctx, p.ID)
	if err != nil {
		res.Err = err
		return res
	}
	res.Detail = DecodeDetail(body)
	return res
}
