package scraper

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString accepts a JSON string, number, or null. Boards disagree on
// whether ids are numeric. Any other shape reads as empty so one odd record
// cannot fail the whole page.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexString(strings.TrimSpace(s))
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = flexString(n.String())
		}
	}
	return nil
}

// flexLocation accepts either "Berlin" or {"name": "Berlin"}. Other shapes
// read as empty.
type flexLocation string

func (f *flexLocation) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '{':
		var obj struct {
			Name flexString `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			*f = flexLocation(obj.Name)
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexLocation(s)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
