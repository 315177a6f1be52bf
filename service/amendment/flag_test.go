package amendment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFlag_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		flag  StatusFlag
		flags uint32
		want  bool
	}{
		{name: "any with no flags", flag: FlagAny, flags: 0, want: true},
		{name: "any with got majority", flag: FlagAny, flags: tfGotMajority, want: true},
		{name: "any with unknown bits", flag: FlagAny, flags: 0x80000000, want: true},
		{name: "enabled with no flags", flag: FlagEnabled, flags: 0, want: true},
		{name: "enabled with got majority", flag: FlagEnabled, flags: tfGotMajority, want: false},
		{name: "enabled with lost majority", flag: FlagEnabled, flags: tfLostMajority, want: false},
		{name: "got majority exact", flag: FlagGotMajority, flags: tfGotMajority, want: true},
		{name: "got majority with extra bits", flag: FlagGotMajority, flags: tfGotMajority | 0x80000000, want: true},
		{name: "got majority with no flags", flag: FlagGotMajority, flags: 0, want: false},
		{name: "got majority with lost majority", flag: FlagGotMajority, flags: tfLostMajority, want: false},
		{name: "lost majority exact", flag: FlagLostMajority, flags: tfLostMajority, want: true},
		{name: "lost majority with got majority", flag: FlagLostMajority, flags: tfGotMajority, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flag.Accepts(tt.flags))
		})
	}
}

func TestStatusFlag_Mask(t *testing.T) {
	assert.Equal(t, uint32(0), FlagAny.Mask())
	assert.Equal(t, uint32(0), FlagEnabled.Mask())
	assert.Equal(t, uint32(0x00010000), FlagGotMajority.Mask())
	assert.Equal(t, uint32(0x00020000), FlagLostMajority.Mask())
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in   string
		want StatusFlag
	}{
		{in: "GotMajority", want: FlagGotMajority},
		{in: "gotmajority", want: FlagGotMajority},
		{in: "tfGotMajority", want: FlagGotMajority},
		{in: "LostMajority", want: FlagLostMajority},
		{in: "tfLostMajority", want: FlagLostMajority},
		{in: "Enabled", want: FlagEnabled},
		{in: "ANY", want: FlagAny},
		{in: "", want: FlagAny},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlag(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				// Round trip through the canonical name.
				again, err := ParseFlag(got.String())
				require.NoError(t, err)
				assert.Equal(t, got, again)
			}
		})
	}

	_, err := ParseFlag("Vetoed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestFlagFromBits(t *testing.T) {
	assert.Equal(t, FlagEnabled, FlagFromBits(0))
	assert.Equal(t, FlagGotMajority, FlagFromBits(tfGotMajority))
	assert.Equal(t, FlagLostMajority, FlagFromBits(tfLostMajority))
	assert.Equal(t, FlagEnabled, FlagFromBits(0x80000000))
}
