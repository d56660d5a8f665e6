package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeParams(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Page: 1, Limit: 10}},
		{"negative page", Params{Page: -3, Limit: 20}, Params{Page: 1, Limit: 20}},
		{"limit too large", Params{Page: 2, Limit: 500}, Params{Page: 2, Limit: 10}},
		{"within range", Params{Page: 4, Limit: 50}, Params{Page: 4, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeParams(tt.in))
		})
	}
}

func TestSkip(t *testing.T) {
	assert.Equal(t, int64(0), Params{Page: 1, Limit: 10}.Skip())
	assert.Equal(t, int64(40), Params{Page: 5, Limit: 10}.Skip())
	assert.Equal(t, int64(75), Params{Page: 4, Limit: 25}.Skip())
}

func TestNewResult(t *testing.T) {
	params := Params{Page: 2, Limit: 10}

	result := NewResult([]string{"a", "b"}, 25, params)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a", "b"}, result.Items)
	assert.Equal(t, int64(25), result.Total)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, int64(3), result.NumOfPages)

	result = NewResult[string](nil, 20, params)
	assert.NotNil(t, result.Items, "nil items become an empty slice")
	assert.Equal(t, int64(2), result.NumOfPages)
}
