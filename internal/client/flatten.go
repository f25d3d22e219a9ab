package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// errorMessage turns an error response body into a single display string.
// It never fails: when nothing useful can be extracted it falls back to
// "<fallback> (<status>)".
func errorMessage(status int, body []byte, fallback string) string {
	if members, ok := decodeObject(body); ok {
		for _, m := range members {
			if detail, ok := m.value.(string); ok && m.key == "detail" {
				return detail
			}
		}
		if len(members) == 0 {
			return fmt.Sprintf("%s (%d)", fallback, status)
		}
		return flattenFields(members)
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("%s (%d)", fallback, status)
}

type member struct {
	key   string
	value any
}

// decodeObject decodes a JSON object into its members in document order. It
// reports false for anything that is not exactly one JSON object.
func decodeObject(body []byte) ([]member, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		members = append(members, member{key: key, value: value})
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return members, true
}

// flattenFields renders field -> messages members as one "field: a; b" line
// each, in the order the server sent them.
func flattenFields(members []member) string {
	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, m.key+": "+joinMessages(m.value))
	}
	return strings.Join(lines, "\n")
}

func joinMessages(v any) string {
	list, ok := v.([]any)
	if !ok {
		return formatScalar(v)
	}
	parts := make([]string, 0, len(list))
	for _, m := range list {
		parts = append(parts, formatScalar(m))
	}
	return strings.Join(parts, "; ")
}

func formatScalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
