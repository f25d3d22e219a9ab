package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonDetail writes an error response of the form {"detail": message}.
func jsonDetail(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"detail": message})
}

// fieldErrors collects validation messages per request field. Fields are
// encoded in the order they were first added, as a form lists them.
type fieldErrors struct {
	order    []string
	messages map[string][]string
}

func (fe *fieldErrors) add(field, message string) {
	if fe.messages == nil {
		fe.messages = make(map[string][]string)
	}
	if _, ok := fe.messages[field]; !ok {
		fe.order = append(fe.order, field)
	}
	fe.messages[field] = append(fe.messages[field], message)
}

func (fe *fieldErrors) empty() bool {
	return len(fe.order) == 0
}

// fields returns the names of the invalid fields.
func (fe *fieldErrors) fields() []string {
	return fe.order
}

func (fe fieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fe.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(fe.messages[field])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
