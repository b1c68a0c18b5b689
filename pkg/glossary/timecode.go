package glossary

import (
	"fmt"
	"strconv"
	"strings"

	"dbbs/pkg/domain"
)

// Bracketed hh:mm:ss, bound to (secs, mins, hrs).
var timeCodePattern = compilePattern(`[{3}:{2}:{1}]`)

// ParseTimeCode parses a bracketed timecode such as "[01:02:03]", where the
// groups are hours, minutes and seconds in textual order.
func ParseTimeCode(raw string) (domain.TimeCode, error) {
	args, ok := timeCodePattern.match(strings.TrimSpace(raw))
	if !ok {
		return domain.TimeCode{}, fmt.Errorf("%w: '%s'", ErrUnrecognizedTimeCodeFormat, raw)
	}

	var fields [3]int
	for i, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || n < 0 {
			return domain.TimeCode{}, fmt.Errorf("%w: '%s'", ErrInvalidTimeCode, raw)
		}
		fields[i] = n
	}

	return domain.TimeCode{
		Secs: fields[0],
		Mins: fields[1],
		Hrs:  fields[2],
	}, nil
}
