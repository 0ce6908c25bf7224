package configspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window-config-lab/internal/domain"
)

func smallGrid() Grid {
	return Grid{
		MinuteFirst:        1,
		MinuteLast:         3,
		PositionPcts:       []float64{0.01, 0.02},
		MaxBuyPrices:       []*int{nil, domain.IntPtr(60)},
		StopOnFlip:         []bool{true, false},
		MaxLosses:          []*int{nil},
		MaxTrades:          []*int{nil, domain.IntPtr(2)},
		FirstDirectionOnly: []bool{true, false},
	}
}

func TestDefaultGrid_Count(t *testing.T) {
	g := DefaultGrid()
	require.NoError(t, g.Validate())

	// 91 minute ranges x 3 sizes x 8 prices x 4 loss caps x 6 trade caps x 3 direction modes
	assert.Equal(t, 157248, Count(g))
	assert.Len(t, g.MinuteRanges(), 91)
}

func TestGenerate_MatchesCount(t *testing.T) {
	g := smallGrid()

	configs, err := Generate(g)
	require.NoError(t, err)

	// 6 ranges x 2 x 2 x 1 x 2 x 3 modes
	assert.Len(t, configs, 144)
	assert.Equal(t, len(configs), Count(g))
	assert.Len(t, Product(g), 192)
}

func TestGenerate_NoRedundantConfigs(t *testing.T) {
	configs, err := Generate(smallGrid())
	require.NoError(t, err)

	for _, c := range configs {
		assert.False(t, c.FirstDirectionOnly && c.StopOnFlip, "redundant config emitted: %s", c.Label())
	}
}

func TestGenerate_NoDuplicates(t *testing.T) {
	configs, err := Generate(smallGrid())
	require.NoError(t, err)

	seen := make(map[string]bool, len(configs))
	for _, c := range configs {
		require.False(t, seen[c.Key()], "duplicate config %s", c.Key())
		seen[c.Key()] = true
	}
}

func TestGenerate_AllValidAndMinLeMax(t *testing.T) {
	configs, err := Generate(DefaultGrid())
	require.NoError(t, err)

	for _, c := range configs {
		require.NoError(t, c.Validate())
		require.LessOrEqual(t, c.MinMinute, c.MaxMinute)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(smallGrid())
	require.NoError(t, err)
	b, err := Generate(smallGrid())
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Key(), b[i].Key())
	}
	assert.Equal(t, 1, a[0].MinMinute)
	assert.Equal(t, 1, a[0].MaxMinute)
}

func TestGenerate_ConfigsDoNotAliasGrid(t *testing.T) {
	g := smallGrid()
	configs, err := Generate(g)
	require.NoError(t, err)

	*g.MaxBuyPrices[1] = 99
	for _, c := range configs {
		if c.MaxBuyPriceCents != nil {
			assert.Equal(t, 60, *c.MaxBuyPriceCents)
		}
	}
}

func TestPrune(t *testing.T) {
	configs := []domain.SweepConfig{
		{MinMinute: 1, MaxMinute: 2, PositionPct: 0.01, StopOnFlip: true, FirstDirectionOnly: true},
		{MinMinute: 1, MaxMinute: 2, PositionPct: 0.01, StopOnFlip: true},
		{MinMinute: 1, MaxMinute: 2, PositionPct: 0.01, FirstDirectionOnly: true},
	}

	out := Prune(configs, Redundant)

	require.Len(t, out, 2)
	assert.True(t, out[0].StopOnFlip)
	assert.True(t, out[1].FirstDirectionOnly)
}

func TestGrid_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Grid)
		want   error
	}{
		{"valid", func(*Grid) {}, nil},
		{"empty sizing", func(g *Grid) { g.PositionPcts = nil }, ErrEmptyDimension},
		{"duplicate sizing", func(g *Grid) { g.PositionPcts = []float64{0.01, 0.01} }, ErrDuplicateValue},
		{"zero sizing", func(g *Grid) { g.PositionPcts = []float64{0} }, ErrInvalidValue},
		{"duplicate no-limit", func(g *Grid) { g.MaxBuyPrices = []*int{nil, nil} }, ErrDuplicateValue},
		{"price out of range", func(g *Grid) { g.MaxBuyPrices = []*int{domain.IntPtr(100)} }, ErrInvalidValue},
		{"zero loss cap", func(g *Grid) { g.MaxLosses = []*int{domain.IntPtr(0)} }, ErrInvalidValue},
		{"empty trade caps", func(g *Grid) { g.MaxTrades = nil }, ErrEmptyDimension},
		{"duplicate flip", func(g *Grid) { g.StopOnFlip = []bool{true, true} }, ErrDuplicateValue},
		{"inverted minutes", func(g *Grid) { g.MinuteFirst, g.MinuteLast = 5, 2 }, ErrInvalidMinuteRange},
		{"minute beyond domain", func(g *Grid) { g.MinuteLast = 14 }, ErrInvalidMinuteRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := smallGrid()
			tt.mutate(&g)
			err := g.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)

			_, genErr := Generate(g)
			assert.ErrorIs(t, genErr, tt.want)
		})
	}
}
