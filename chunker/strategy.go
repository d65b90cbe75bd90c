package chunker

import "strings"

// RecordSeparator delimits records in row-oriented text such as rendered
// spreadsheet rows. Its presence selects StrategyRecord.
const RecordSeparator = "<SEP>"

// DefaultSeparator splits prose into sentence-like segments.
const DefaultSeparator = "."

// Strategy selects how text is cut into chunks.
type Strategy int

const (
	// StrategyProse splits on a separator and windows oversized segments.
	StrategyProse Strategy = iota
	// StrategyRecord packs whole records greedily.
	StrategyRecord
)

func (s Strategy) String() string {
	switch s {
	case StrategyProse:
		return "prose"
	case StrategyRecord:
		return "record"
	default:
		return "unknown"
	}
}

// DetectStrategy returns StrategyRecord if text contains RecordSeparator,
// StrategyProse otherwise.
func DetectStrategy(text string) Strategy {
	if strings.Contains(text, RecordSeparator) {
		return StrategyRecord
	}
	return StrategyProse
}
