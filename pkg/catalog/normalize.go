package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const envelopeStatusError = "error"

// responseEnvelope covers both the application error envelope returned with
// 2xx statuses and the error bodies returned with non-2xx statuses. Errors is
// either a field map or a list of messages.
type responseEnvelope struct {
	Status       string
	Message      any
	Errors       any
	Payload      any
	ResponseCode json.RawMessage
}

// normalize turns a received response into either nil (success) or an
// *HTTPError. The body of a successful response is left to the caller.
func normalize(status int, body []byte) *HTTPError {
	env, parsed := parseEnvelope(body)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		if parsed {
			if msg := messageText(env.Message); msg != "" {
				return &HTTPError{
					Message:      msg,
					StatusCode:   status,
					Payload:      env.Payload,
					ResponseCode: parseResponseCode(env.ResponseCode),
					kind:         kindHTTP,
				}
			}
		}
		return &HTTPError{Message: GenericMessage, StatusCode: status, kind: kindHTTP}
	}

	if !parsed || !strings.EqualFold(strings.TrimSpace(env.Status), envelopeStatusError) {
		return nil
	}

	if msg, ok := firstError(env.Errors); ok {
		if msg == "" {
			msg = GenericMessage
		}
		return &HTTPError{
			Message:    msg,
			StatusCode: http.StatusBadRequest,
			Payload:    env.Errors,
			kind:       kindEnvelope,
		}
	}

	msg := messageText(env.Message)
	if msg == "" {
		msg = GenericMessage
	}
	return &HTTPError{Message: msg, StatusCode: http.StatusBadRequest, kind: kindEnvelope}
}

// parseEnvelope decodes each known field on its own, so a field of an
// unexpected type does not hide the others.
func parseEnvelope(body []byte) (responseEnvelope, bool) {
	var env responseEnvelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return env, false
	}

	_ = json.Unmarshal(fields["status"], &env.Status)
	env.Message = decodeAny(fields["message"])
	env.Errors = decodeAny(fields["errors"])
	env.Payload = decodeAny(fields["payload"])
	env.ResponseCode = fields["responseCode"]
	return env, true
}

func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// firstError returns the message to surface from an errors field and whether
// the field held any entries at all.
func firstError(errs any) (string, bool) {
	switch val := errs.(type) {
	case map[string]any:
		if len(val) == 0 {
			return "", false
		}
		return messageText(val[firstField(val)]), true
	case []any:
		if len(val) == 0 {
			return "", false
		}
		return messageText(val[0]), true
	case string:
		if msg := strings.TrimSpace(val); msg != "" {
			return msg, true
		}
	}
	return "", false
}

// firstField picks the field error to surface. Map iteration order is random,
// so the alphabetically first field name wins.
func firstField(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0]
}

func messageText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		for _, item := range val {
			if s := messageText(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func parseResponseCode(raw json.RawMessage) *int {
	trimmed := bytes.Trim(bytes.TrimSpace(raw), `"`)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	code, err := strconv.Atoi(string(trimmed))
	if err != nil {
		return nil
	}
	return &code
}
