package amendment

import (
	"fmt"
	"strings"
)

// EnableAmendment flag bits.
const (
	tfGotMajority  uint32 = 0x00010000
	tfLostMajority uint32 = 0x00020000
)

// StatusFlag selects which EnableAmendment status change to look for.
type StatusFlag int

const (
	// FlagAny matches regardless of the transaction's flags.
	FlagAny StatusFlag = iota
	// FlagEnabled matches the activation itself (no flag bits set).
	FlagEnabled
	// FlagGotMajority matches the transaction recording that validators reached a majority.
	FlagGotMajority
	// FlagLostMajority matches the transaction recording that the majority was lost.
	FlagLostMajority
)

// FlagNames lists the accepted flag names in display order.
var FlagNames = []string{"GotMajority", "LostMajority", "Enabled", "Any"}

func (f StatusFlag) String() string {
	switch f {
	case FlagAny:
		return "Any"
	case FlagEnabled:
		return "Enabled"
	case FlagGotMajority:
		return "GotMajority"
	case FlagLostMajority:
		return "LostMajority"
	default:
		return fmt.Sprintf("StatusFlag(%d)", int(f))
	}
}

// Mask returns the transaction flag bit for f. FlagAny and FlagEnabled have no bit.
func (f StatusFlag) Mask() uint32 {
	switch f {
	case FlagGotMajority:
		return tfGotMajority
	case FlagLostMajority:
		return tfLostMajority
	default:
		return 0
	}
}

// Accepts reports whether a transaction carrying flags satisfies f.
func (f StatusFlag) Accepts(flags uint32) bool {
	switch f {
	case FlagAny:
		return true
	case FlagEnabled:
		return flags == 0
	default:
		return flags&f.Mask() != 0
	}
}

// ParseFlag parses a flag name case-insensitively. The rippled constant
// names (tfGotMajority, tfLostMajority) are accepted as well.
func ParseFlag(s string) (StatusFlag, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tf")
	switch name {
	case "any", "":
		return FlagAny, nil
	case "enabled":
		return FlagEnabled, nil
	case "gotmajority":
		return FlagGotMajority, nil
	case "lostmajority":
		return FlagLostMajority, nil
	}
	return FlagAny, fmt.Errorf("unknown flag %q (want one of %s)", s, strings.Join(FlagNames, ", "))
}

// FlagFromBits names the status change recorded by an EnableAmendment
// transaction carrying flags.
func FlagFromBits(flags uint32) StatusFlag {
	switch {
	case flags&tfGotMajority != 0:
		return FlagGotMajority
	case flags&tfLostMajority != 0:
		return FlagLostMajority
	default:
		return FlagEnabled
	}
}
