package domain

// ParseResult is the aggregate output of one glossary parse.
type ParseResult struct {
	// Timestamp is the generation time formatted as M-D-YYYY-HH:MM:SS.
	Timestamp *string   `bson:"timestamp" json:"timestamp"`
	Episodes  []Episode `bson:"episodes" json:"episodes"`
	Bits      []Bit     `bson:"bits" json:"bits"`
}

// NewParseResult returns an empty result whose slices encode as [] rather than null.
func NewParseResult() *ParseResult {
	return &ParseResult{
		Episodes: []Episode{},
		Bits:     []Bit{},
	}
}

// Append adds the episodes and bits of other, preserving order.
func (r *ParseResult) Append(other *ParseResult) {
	if other == nil {
		return
	}
	r.Episodes = append(r.Episodes, other.Episodes...)
	r.Bits = append(r.Bits, other.Bits...)
}
