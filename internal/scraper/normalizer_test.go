package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  Senior   Engineer \n", "Senior Engineer"},
		{"R&amp;D Engineer", "R&D Engineer"},
		{"<p>Backend</p><p>Go</p>", "Backend Go"},
		{"Eng<em>ineer</em>", "Engineer"},
		{"Lead<script>alert(1)</script> Dev", "Lead Dev"},
		{"Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), tt.in)
	}
}
