package ssp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, pageSize int) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:   "http://ssp.test/ssp/api/1",
		Token:     "tok",
		PageSize:  pageSize,
		Transport: rt,
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestPreviewURL(t *testing.T) {
	c := newTestClient(t, nil, 0)
	assert.Equal(t, "http://ssp.test/ssp/api/1/reference/messageTemplatePreview?id=42", c.PreviewURL(42))
}

func TestPreviewURLCustomEndpoint(t *testing.T) {
	c, err := New(Options{BaseURL: "http://ssp.test/api/", PreviewEndpoint: "/templates/preview"})
	require.NoError(t, err)
	assert.Equal(t, "http://ssp.test/api/templates/preview?id=7", c.PreviewURL(7))
}

func TestListMessageTemplatesPagination(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		assert.NotEmpty(t, req.Header.Get(RequestIDHeader))
		assert.Equal(t, "/ssp/api/1/reference/messageTemplate", req.URL.Path)
		switch req.URL.Query().Get("start") {
		case "0":
			return jsonResponse(200, `{"success":true,"results":3,"rows":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`), nil
		case "2":
			return jsonResponse(200, `{"success":true,"results":3,"rows":[{"id":3,"name":"c"}]}`), nil
		}
		t.Fatalf("unexpected start %q", req.URL.Query().Get("start"))
		return nil, nil
	}, 2)

	got, err := c.ListMessageTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "c", got[2].Name)
	assert.JSONEq(t, `{"id":3,"name":"c"}`, string(got[2].Raw()))
}

func TestListMessageTemplatesStatusError(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{}`), nil
	}, 0)

	_, err := c.ListMessageTemplates(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestUpdateMessageTemplate(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/ssp/api/1/reference/messageTemplate/9", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		var in map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		assert.Equal(t, "Renamed", in["name"])
		return jsonResponse(200, `{"id":9,"name":"Renamed","subject":"s","body":"b","modifiedDate":5}`), nil
	}, 0)

	saved, err := c.UpdateMessageTemplate(context.Background(), MessageTemplate{ID: 9, Name: "Renamed", Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, saved.ModifiedDate)
}

func TestUpdateMessageTemplateRequiresID(t *testing.T) {
	c := newTestClient(t, nil, 0)
	_, err := c.UpdateMessageTemplate(context.Background(), MessageTemplate{Name: "x"})
	assert.Error(t, err)
}

func TestGetMessageTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reference/messageTemplate/4", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":4,"name":"Reminder","subject":"Due"}`)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	got, err := c.GetMessageTemplate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Reminder", got.Name)
	assert.Equal(t, "Due", got.Subject)
}

func TestPreviewMessageTemplateReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reference/messageTemplatePreview", r.URL.Path)
		switch r.URL.Query().Get("id") {
		case "42":
			_, _ = io.WriteString(w, `{"id":42,"name":"Welcome Email","body":"Hello"}`)
		case "0":
			// empty success body
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)

	body, err := c.PreviewMessageTemplate(context.Background(), 42)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"name":"Welcome Email","body":"Hello"}`, string(body))

	body, err = c.PreviewMessageTemplate(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestPreviewMessageTemplateTransportError(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, 0)
	_, err := c.PreviewMessageTemplate(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messageTemplate.preview")
}
