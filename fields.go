package menuboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Element identifiers the dashboard page must provide.
const (
	NodeNextMenuDate  = "nextMenuDate"
	NodeMenuSeason    = "menuSeason"
	NodeErrorMessages = "errorMessages"
)

// FieldFormat selects how a field value is written to its node.
type FieldFormat string

const (
	// FormatText writes the value verbatim as text.
	FormatText FieldFormat = "text"

	// FormatDate writes the value as a locale short date, or "Invalid Date".
	FormatDate FieldFormat = "date"

	// FormatLinks writes an array of {name, url} objects as a list of links.
	FormatLinks FieldFormat = "links"
)

// Field binds a value in the status document to a display node.
//
// Path uses dot notation to navigate nested objects, for example
// "period_start" or "meta.updated_at".
type Field struct {
	Node   string
	Path   string
	Format FieldFormat
}

// defaultFields are always rendered, before any configured fields.
var defaultFields = []Field{
	{Node: NodeNextMenuDate, Path: "send_date", Format: FormatDate},
	{Node: NodeMenuSeason, Path: "season", Format: FormatText},
}

// ParseFieldFormat parses a format name. The empty string means text.
func ParseFieldFormat(s string) (FieldFormat, error) {
	switch f := FieldFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatDate, FormatLinks:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field format %q (expected text, date or links)", s)
	}
}

func (f Field) validate() error {
	if f.Node == "" {
		return errors.New("field node cannot be empty")
	}
	if f.Node == NodeErrorMessages {
		return fmt.Errorf("field node %q is reserved for errors", f.Node)
	}
	if f.Path == "" {
		return fmt.Errorf("field %q: path cannot be empty", f.Node)
	}
	if strings.HasPrefix(f.Path, ".") || strings.HasSuffix(f.Path, ".") || strings.Contains(f.Path, "..") {
		return fmt.Errorf("field %q: invalid path %q", f.Node, f.Path)
	}
	if _, err := ParseFieldFormat(string(f.Format)); err != nil {
		return fmt.Errorf("field %q: %w", f.Node, err)
	}
	return nil
}

// lookupJSONPath walks a decoded JSON structure using dot notation parts.
func lookupJSONPath(data any, parts []string) (any, bool) {
	current := data
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// stringify renders a decoded JSON value as display text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// menuRefs converts a decoded array of {name, url} objects, skipping
// entries that are not objects.
func menuRefs(v any) []MenuRef {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	refs := make([]MenuRef, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, MenuRef{
			Name: stringify(obj["name"]),
			URL:  stringify(obj["url"]),
		})
	}
	return refs
}
