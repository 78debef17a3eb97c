package screening

import (
	"strconv"
	"strings"
)

// ResponseOption is one of the four PHQ-9 answers. Its value is the item score.
type ResponseOption int

const (
	NotAtAll ResponseOption = iota
	SeveralDays
	MoreThanHalfTheDays
	NearlyEveryDay
)

// Score returns the item score for the option.
func (o ResponseOption) Score() int { return int(o) }

// Valid reports whether o is one of the four defined options.
func (o ResponseOption) Valid() bool { return o >= NotAtAll && o <= NearlyEveryDay }

func (o ResponseOption) String() string {
	if !o.Valid() {
		return "ResponseOption(" + strconv.Itoa(int(o)) + ")"
	}
	return optionLabels[o]
}

// Mapper turns a free-text reply into a ResponseOption.
type Mapper struct {
	// AcceptNumeric enables the "1".."4" shortcuts matching the numbered menu.
	AcceptNumeric bool
}

// Map returns the option matching text, or false when the reply is not recognized.
// Matching is exact after trimming and lower-casing.
func (m Mapper) Map(text string) (ResponseOption, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for i, label := range optionLabels {
		if normalized == strings.ToLower(label) {
			return ResponseOption(i), true
		}
	}
	if m.AcceptNumeric {
		if n, err := strconv.Atoi(normalized); err == nil && n >= 1 && n <= len(optionLabels) {
			return ResponseOption(n - 1), true
		}
	}
	return 0, false
}

// MapResponse maps text using the label-only rules.
func MapResponse(text string) (ResponseOption, bool) {
	return Mapper{}.Map(text)
}
