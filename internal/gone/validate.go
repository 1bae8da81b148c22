package gone

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go_gone/internal/model"
)

// ValidatePattern trims the pattern and checks it can be stored.
// It returns the trimmed pattern.
func ValidatePattern(pattern string, isRegex bool) (string, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return "", fmt.Errorf("%w: pattern cannot be empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(p); n > model.MaxPatternLength {
		return "", fmt.Errorf("%w: pattern is %d characters, limit is %d", ErrValidation, n, model.MaxPatternLength)
	}
	if isRegex {
		if _, err := regexp.Compile(p); err != nil {
			return "", fmt.Errorf("%w: invalid regular expression: %v", ErrValidation, err)
		}
	}
	return p, nil
}
