package amendment

import (
	"strings"
	"testing"

	"github.com/brojonat/amendfinder/service/rippled"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTarget_NormalizesID(t *testing.T) {
	target, err := NewTarget("  "+strings.ToLower(sortedDirectoriesID)+"\n", FlagEnabled, 33895169)
	require.NoError(t, err)
	assert.Equal(t, sortedDirectoriesID, target.AmendmentID)
	assert.Equal(t, FlagEnabled, target.Flag)
	assert.EqualValues(t, 33895169, target.Start)
}

func TestNewTarget_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		start   int64
		wantErr string
	}{
		{name: "short id", id: "CC5ABA", start: 1, wantErr: "must be 64 hex characters"},
		{name: "non hex", id: strings.Repeat("Z", 64), start: 1, wantErr: "not valid hex"},
		{name: "negative start", id: sortedDirectoriesID, start: -1, wantErr: "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTarget(tt.id, FlagAny, rippled.LedgerIndex(tt.start))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
