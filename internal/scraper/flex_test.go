package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		bullet   string
		location string
	}{
		{"string and object", `{"bulletFields": ["R1"], "location": {"name": "Austin"}}`, "R1", "Austin"},
		{"number and string", `{"bulletFields": [1234], "location": "Remote"}`, "1234", "Remote"},
		{"nulls", `{"bulletFields": [null], "location": null}`, "", ""},
		{"object bullet, array location", `{"bulletFields": [{"id": "R2"}], "location": ["A", "B"]}`, "", ""},
		{"bool bullet, numeric location", `{"bulletFields": [true], "location": 12}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec paginatedRecord
			require.NoError(t, json.Unmarshal([]byte(tt.body), &rec))
			require.Len(t, rec.BulletFields, 1)
			assert.Equal(t, tt.bullet, string(rec.BulletFields[0]))
			assert.Equal(t, tt.location, string(rec.Location))
		})
	}
}
