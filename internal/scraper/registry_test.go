package scraper

import (
	"context"
	"testing"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct{}

func (stubAdapter) Fetch(context.Context, model.Site) ([]model.Posting, error) { return nil, nil }

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(Options{})

	for _, kind := range []model.AdapterKind{model.KindPaginatedAPI, model.KindSimpleAPI, model.KindHTML, "workday", "Greenhouse"} {
		a, err := r.Resolve(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, a)
	}

	a, err := r.Resolve("workday")
	require.NoError(t, err)
	assert.IsType(t, &PaginatedAdapter{}, a)

	_, err = r.Resolve("graphql")
	require.Error(t, err)
	assert.Equal(t, model.ErrUnknownAdapter, model.KindOf(err))
}

func TestRegistry_Register(t *testing.T) {
	r := NewEmptyRegistry()
	_, err := r.Resolve(model.KindHTML)
	assert.True(t, model.IsKind(err, model.ErrUnknownAdapter))

	r.Register(model.KindHTML, stubAdapter{})
	a, err := r.Resolve(model.KindHTML)
	require.NoError(t, err)
	assert.Equal(t, stubAdapter{}, a)
}
