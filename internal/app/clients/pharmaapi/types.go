// internal/app/clients/pharmaapi/types.go
package pharmaapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an entity identifier as the API hands it out. The backend uses
// numeric keys for most collections but the console never relies on that:
// numeric IDs travel as JSON numbers, anything else as a JSON string.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether no identifier was chosen.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// MarshalJSON writes numeric IDs as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if s != "" {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return []byte(s), nil
		}
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Option is a lookup entry used to fill context selectors.
type Option struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// BulkSummary is the server's own count for one bulk-create call.
type BulkSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// BulkResponse is the body returned by every bulk-create endpoint.
type BulkResponse struct {
	Summary BulkSummary    `json:"summary"`
	Errors  []BulkRowError `json:"errors"`
}

// BulkRowError reports one rejected record. Index is relative to the
// submitted batch.
type BulkRowError struct {
	Index  int
	Data   json.RawMessage
	Error  string
	Errors []string

	raw json.RawMessage
}

// UnmarshalJSON keeps the raw entry so Message can fall back to it.
func (e *BulkRowError) UnmarshalJSON(b []byte) error {
	var wire struct {
		Index  int               `json:"index"`
		Data   json.RawMessage   `json:"data"`
		Error  json.RawMessage   `json:"error"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	*e = BulkRowError{
		Index: wire.Index,
		Data:  wire.Data,
		raw:   append(json.RawMessage(nil), b...),
	}
	if s, ok := jsonString(wire.Error); ok {
		e.Error = s
	}
	for _, item := range wire.Errors {
		if s, ok := jsonString(item); ok {
			e.Errors = append(e.Errors, s)
		} else if len(item) > 0 {
			e.Errors = append(e.Errors, string(item))
		}
	}
	return nil
}

// Message picks the text shown to the user for this row: the explicit
// error string, else the joined error list, else the raw entry.
func (e BulkRowError) Message() string {
	if strings.TrimSpace(e.Error) != "" {
		return e.Error
	}
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, ", ")
	}
	if len(e.raw) > 0 {
		return string(e.raw)
	}
	b, _ := json.Marshal(struct {
		Index int             `json:"index"`
		Data  json.RawMessage `json:"data,omitempty"`
	}{e.Index, e.Data})
	return string(b)
}

// SessionUser is the profile returned by the login endpoint.
type SessionUser struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the bearer token for subsequent calls.
type LoginResult struct {
	Token string
	User  SessionUser
}

func jsonString(b json.RawMessage) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}
