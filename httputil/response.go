package httputil

import (
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return respBody, nil
}

// APIError is a structured error the remote catalog returned in a response
// body. Its message is user-legible and safe to surface to the host.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "remote api error: " + e.Message
}

// APIErrorMessage probes a response body for the catalog's structured error
// shape and returns the server-supplied message when present.
func APIErrorMessage(b []byte) (string, bool) {
	var body struct {
		Errors []struct {
			ErrorMessage string `json:"error_message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(b, &body); nil == err && len(body.Errors) > 0 && body.Errors[0].ErrorMessage != "" {
		return body.Errors[0].ErrorMessage, true
	}

	// Older endpoints report a single top-level error string.
	if v := gjson.GetBytes(b, "error"); v.Type == gjson.String && v.Str != "" {
		return v.Str, true
	}

	return "", false
}
