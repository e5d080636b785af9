package store

import (
	"context"
	"os"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type sitesDocument struct {
	Sites []model.Site `yaml:"sites"`
}

// FileSites is a site registry backed by a YAML file. The file is re-read on
// every ListSites call so edits apply to the next run.
type FileSites struct {
	path string
}

func NewFileSites(path string) *FileSites {
	return &FileSites{path: path}
}

func (f *FileSites) ListSites(ctx context.Context) ([]model.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "list sites", err)
	}
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "list sites", eris.Wrapf(err, "failed to read %s", f.path))
	}
	return ParseSites(content)
}

// ParseSites decodes a YAML sites document. Scraper types are normalized so
// legacy names resolve to their adapter kind.
func ParseSites(content []byte) ([]model.Site, error) {
	var doc sitesDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "parse sites", eris.Wrap(err, "invalid sites file"))
	}
	sites := make([]model.Site, 0, len(doc.Sites))
	for _, s := range doc.Sites {
		s.Kind = model.ParseAdapterKind(string(s.Kind))
		sites = append(sites, s)
	}
	return sites, nil
}
