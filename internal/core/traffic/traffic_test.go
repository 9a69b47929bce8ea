package traffic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	for _, index := range []int{1, 2, 9, 10, 11, 100, 12345} {
		id := RequestID("sts_", index)
		got, err := IndexFromRequestID("sts_", id)
		require.NoError(t, err)
		assert.Equal(t, index, got)
	}
}

func TestIndexFromRequestID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"wrong prefix", "abc_1"},
		{"no index", "sts_"},
		{"not a number", "sts_x1"},
		{"zero", "sts_0"},
		{"negative", "sts_-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IndexFromRequestID("sts_", tt.id)
			assert.True(t, errors.Is(err, ErrInvalidRequestID), "got %v", err)
		})
	}
}

func TestAssign_IsPositionalAndReproducible(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}

	first := Assign("sts_", rows)
	second := Assign("sts_", rows)

	assert.Equal(t, first, second)
	for i, req := range first {
		assert.Equal(t, i+1, req.Index)
		assert.Equal(t, RequestID("sts_", i+1), req.ID)
		assert.Equal(t, rows[i], req.Input)
	}
}

func TestParseTable(t *testing.T) {
	data := []byte("1,0.5,0.25\n0,1.5,2\n1, 3 ,4\n")

	table, err := ParseTable(data)

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0", "1"}, table.Labels)
	assert.Equal(t, [][]float64{{0.5, 0.25}, {1.5, 2}, {3, 4}}, table.Rows)
	assert.Equal(t, 3, table.Len())
}

func TestParseTable_Errors(t *testing.T) {
	_, err := ParseTable([]byte("1\n"))
	assert.Error(t, err)

	_, err = ParseTable([]byte("1,x\n"))
	assert.Error(t, err)
}

func TestTable_LabelUsesOneBasedIndex(t *testing.T) {
	table := &Table{Labels: []string{"a", "b", "c"}}

	// Request id N decodes back to the label of row N-1.
	for n := 1; n <= 3; n++ {
		id := RequestID("sts_", n)
		idx, err := IndexFromRequestID("sts_", id)
		require.NoError(t, err)
		label, ok := table.Label(idx)
		require.True(t, ok)
		assert.Equal(t, table.Labels[n-1], label)
	}

	_, ok := table.Label(0)
	assert.False(t, ok)
	_, ok = table.Label(4)
	assert.False(t, ok)
}
