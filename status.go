package menuboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// StatusResponse is the decoded body of the menu status endpoint.
//
// Each response is consumed once by a poll cycle and discarded. Fields
// beyond SendDate and Season are optional and only rendered when a
// matching [Field] is configured.
type StatusResponse struct {
	// SendDate is the date the next menu goes out, ISO 8601 expected.
	SendDate string `json:"send_date"`

	// Season is the display name of the current menu season.
	Season string `json:"season"`

	// Error is set when the server reports a failure inside an otherwise
	// well-formed response.
	Error ServerError `json:"error,omitempty"`

	// PeriodStart is the first day of the period the next menu covers.
	PeriodStart string `json:"period_start,omitempty"`

	// MenuPair identifies which pair of weekly menus is next ("1_2" or "3_4").
	MenuPair string `json:"menu_pair,omitempty"`

	// Menus lists the menu documents for the period.
	Menus []MenuRef `json:"menus,omitempty"`

	// raw is the decoded body, kept for field bindings.
	raw map[string]any
}

// MenuRef names one menu document and where to get it.
type MenuRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ServerError is the server-reported error message of a [StatusResponse].
//
// It decodes any JSON value using JavaScript truthiness: null, false, 0 and
// "" decode to the empty string (no error); strings decode verbatim; other
// values decode to their JSON text.
type ServerError string

// UnmarshalJSON implements json.Unmarshaler.
func (e *ServerError) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
		*e = ""
	case string:
		*e = ServerError(x)
	case bool:
		if x {
			*e = "true"
		} else {
			*e = ""
		}
	case float64:
		if x == 0 {
			*e = ""
		} else {
			*e = ServerError(strconv.FormatFloat(x, 'f', -1, 64))
		}
	default:
		*e = ServerError(bytes.TrimSpace(data))
	}
	return nil
}

// errNotObject is returned when the body is valid JSON but not an object.
var errNotObject = errors.New("response body is not a JSON object")

// ParseStatusResponse decodes a status document.
//
// The body must be a JSON object; anything else, including null, is an error.
func ParseStatusResponse(body []byte) (StatusResponse, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return StatusResponse{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw == nil {
		return StatusResponse{}, errNotObject
	}

	// a field of an unexpected type is not fatal: rendering reads the raw
	// body and stringifies whatever value is there
	var resp StatusResponse
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(body, &resp); err != nil && !errors.As(err, &typeErr) {
		return StatusResponse{}, fmt.Errorf("invalid status document: %w", err)
	}
	resp.raw = raw
	return resp, nil
}

// ServerReportedError reports whether the response carries an error
// message, and returns it.
func (r StatusResponse) ServerReportedError() (string, bool) {
	return string(r.Error), r.Error != ""
}

// value walks the decoded body by path. Responses built in code without a
// raw body fall back to their typed fields.
func (r StatusResponse) value(path []string) (any, bool) {
	if r.raw == nil {
		r.raw = r.typedFields()
	}
	return lookupJSONPath(r.raw, path)
}

func (r StatusResponse) typedFields() map[string]any {
	m := map[string]any{
		"send_date": r.SendDate,
		"season":    r.Season,
	}
	if r.PeriodStart != "" {
		m["period_start"] = r.PeriodStart
	}
	if r.MenuPair != "" {
		m["menu_pair"] = r.MenuPair
	}
	if len(r.Menus) > 0 {
		menus := make([]any, len(r.Menus))
		for i, mr := range r.Menus {
			menus[i] = map[string]any{"name": mr.Name, "url": mr.URL}
		}
		m["menus"] = menus
	}
	return m
}

// UIState is whether the error container is currently populated.
type UIState int

const (
	// StateNominal means the last applied cycle rendered successfully and
	// the error container is empty.
	StateNominal UIState = iota

	// StateErrored means the error container shows the last failure.
	StateErrored
)

// String returns "nominal" or "errored".
func (s UIState) String() string {
	switch s {
	case StateNominal:
		return "nominal"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// CycleOutcome classifies how a poll cycle was applied.
type CycleOutcome string

const (
	// OutcomeRendered means the response was rendered and the error
	// container cleared.
	OutcomeRendered CycleOutcome = "rendered"

	// OutcomeServerError means the response carried an error message, which
	// is now on display.
	OutcomeServerError CycleOutcome = "server_error"

	// OutcomeTransportError means the request or body decoding failed and
	// the generic message is on display.
	OutcomeTransportError CycleOutcome = "transport_error"

	// OutcomeStale means a newer cycle had already been applied, so this
	// result was discarded without touching the display.
	OutcomeStale CycleOutcome = "stale"
)

// CycleResult describes one completed poll cycle.
type CycleResult struct {
	// Seq is the cycle's sequence number.
	Seq uint64

	// Outcome is how the cycle was applied.
	Outcome CycleOutcome

	// Message is the text shown in the error container, empty when the
	// cycle rendered successfully.
	Message string

	// Err is the underlying transport, decode or render failure. It is
	// never shown to the user.
	Err error

	// StatusCode is the HTTP status code, zero if no response arrived.
	StatusCode int

	// Latency is the time taken by the request.
	Latency time.Duration

	// CompletedAt is when the cycle was applied.
	CompletedAt time.Time
}

// StateChange is delivered to state callbacks when the display moves
// between [StateNominal] and [StateErrored], or when the error on display
// is replaced by a different one.
type StateChange struct {
	From    UIState
	To      UIState
	Message string
	Seq     uint64
	At      time.Time
}
