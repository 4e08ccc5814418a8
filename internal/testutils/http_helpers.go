package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userIDHeader mirrors middleware.UserIDHeader.
const userIDHeader = "X-User-ID"

// CreateTestServer creates a httptest server with the given handler and
// closes it when the test finishes.
func CreateTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// DoJSON sends a request with an optional JSON body. A uuid.Nil userID sends
// no identity header. The response body is closed when the test finishes.
func DoJSON(
	t *testing.T,
	server *httptest.Server,
	method, path string,
	userID uuid.UUID,
	body any,
) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err, "failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req.Header.Set(userIDHeader, userID.String())
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err, "request failed")
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// DecodeJSONResponse asserts the status code and decodes the body into v.
func DecodeJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, v any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status, body: %s", body)
	require.NoError(t, json.Unmarshal(body, v), "failed to decode response: %s", body)
}

// AssertErrorResponse checks that a response carries an error with the
// expected status code and a message containing expectedMsgPart.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMsgPart string) {
	t.Helper()

	var errResp shared.ErrorResponse
	DecodeJSONResponse(t, resp, expectedStatus, &errResp)
	assert.Contains(t, errResp.Error, expectedMsgPart)
}
