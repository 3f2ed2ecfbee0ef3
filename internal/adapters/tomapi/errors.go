package tomapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

// APIError is a non-2xx answer from the TOM API. DRF reports either a
// top-level "detail" (or "error") message or a map of field messages.
type APIError struct {
	Status int
	Code   string
	Detail string
	Fields map[string][]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tom api %d", e.Status)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	for _, name := range e.fieldNames() {
		fmt.Fprintf(&b, "; %s: %s", name, strings.Join(e.Fields[name], " "))
	}
	return b.String()
}

// FieldMessages returns the per-field messages, if any.
func (e *APIError) FieldMessages() map[string][]string { return e.Fields }

func (e *APIError) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *APIError) singleField() string {
	if len(e.Fields) != 1 {
		return ""
	}
	for name := range e.Fields {
		return name
	}
	return ""
}

// readAPIError consumes and closes the body.
func readAPIError(resp *http.Response) *APIError {
	defer closeBody(resp)

	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		apiErr.Detail = http.StatusText(resp.StatusCode)
		return apiErr
	}
	parseErrorBody(apiErr, raw)
	return apiErr
}

func parseErrorBody(apiErr *APIError, raw []byte) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for key, value := range obj {
			msgs := flattenMessages(value)
			switch key {
			case "detail", "error", "message":
				if apiErr.Detail == "" {
					apiErr.Detail = strings.Join(msgs, " ")
				}
			case "code":
				apiErr.Code = strings.Join(msgs, "")
			case "non_field_errors":
				apiErr.Detail = strings.TrimSpace(apiErr.Detail + " " + strings.Join(msgs, " "))
			case "messages":
				// simplejwt's per-token diagnostics
			default:
				if len(msgs) == 0 {
					continue
				}
				if apiErr.Fields == nil {
					apiErr.Fields = map[string][]string{}
				}
				apiErr.Fields[key] = msgs
			}
		}
		return
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		apiErr.Detail = strings.Join(list, " ")
		return
	}

	apiErr.Detail = strings.TrimSpace(string(raw))
	if len(apiErr.Detail) > 256 || strings.HasPrefix(apiErr.Detail, "<") {
		// HTML error pages
		apiErr.Detail = http.StatusText(apiErr.Status)
	}
}

func flattenMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, flattenMessages(item)...)
		}
		return out
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			for _, msg := range flattenMessages(nested[k]) {
				out = append(out, k+": "+msg)
			}
		}
		return out
	}
	return nil
}

// asAuthError classifies failures of the token endpoints.
// No response is a network error; a 400/401/403 means the credentials were rejected.
func asAuthError(err error) error {
	if err == nil {
		return nil
	}
	var authErr *domainauth.AuthError
	if errors.As(err, &authErr) {
		return err
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return domainauth.NewAuthError(domainauth.KindUnauthorized, apiErr.Status, err)
		default:
			return domainauth.NewAuthError(domainauth.KindUnknown, apiErr.Status, err)
		}
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnavailable, apperrors.ErrCodeTimeout, apperrors.ErrCodeCanceled:
		return domainauth.NewAuthError(domainauth.KindNetwork, 0, err)
	default:
		return domainauth.NewAuthError(domainauth.KindUnknown, 0, err)
	}
}

// FieldErrors returns per-field messages carried by err, if any.
func FieldErrors(err error) map[string][]string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
