package model

import "strings"

// AdapterKind names the upstream protocol a site speaks.
type AdapterKind string

const (
	KindPaginatedAPI AdapterKind = "paginated-api"
	KindSimpleAPI    AdapterKind = "simple-api"
	KindHTML         AdapterKind = "html"
)

// ParseAdapterKind normalizes a stored scraper type. Legacy board names from
// older site tables map onto their protocol. Unrecognized values are returned
// as-is so the registry can report them.
func ParseAdapterKind(raw string) AdapterKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paginated-api", "paginated_api", "workday":
		return KindPaginatedAPI
	case "simple-api", "simple_api", "greenhouse":
		return KindSimpleAPI
	case "html", "html-listing":
		return KindHTML
	default:
		return AdapterKind(strings.TrimSpace(raw))
	}
}

// Site describes one job board to poll. Sites are owned by the registry and
// read-only here.
type Site struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Kind     AdapterKind `json:"scraper_type" yaml:"scraper_type"`
	Endpoint string      `json:"endpoint" yaml:"endpoint"`
	BaseURL  string      `json:"base_url" yaml:"base_url"`
}

// Validate reports a ConfigError when a required field is missing.
func (s Site) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return NewError(ErrConfig, s.ID, "validate site", errMissing("id"))
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return NewError(ErrConfig, s.ID, "validate site", errMissing("endpoint"))
	}
	return nil
}
