package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryAdd(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		adds  []string
		want  []string
	}{
		{name: "empty", limit: 5, adds: nil, want: []string{}},
		{name: "prepends", limit: 5, adds: []string{"A", "B"}, want: []string{"B", "A"}},
		{name: "duplicate dropped", limit: 5, adds: []string{"A", "B", "A"}, want: []string{"B", "A"}},
		{name: "evicts oldest", limit: 3, adds: []string{"A", "B", "C", "D"}, want: []string{"D", "C", "B"}},
		{name: "evicted name can return", limit: 2, adds: []string{"A", "B", "C", "A"}, want: []string{"A", "C"}},
		{name: "default limit", limit: 0, adds: []string{"1", "2", "3", "4", "5", "6"}, want: []string{"6", "5", "4", "3", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.limit)
			for _, a := range tt.adds {
				h.Add(a)
			}
			assert.Equal(t, tt.want, h.Entries())
			assert.Equal(t, len(tt.want), h.Len())
		})
	}
}

func TestHistoryAddReportsInsertion(t *testing.T) {
	h := NewHistory(5)
	assert.True(t, h.Add("Paris"))
	assert.False(t, h.Add("Paris"))
	assert.True(t, h.Contains("Paris"))
	assert.False(t, h.Contains("Rome"))
}
