package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"hydration/internal/domain"
)

// parseDay turns a --day value into YYYY-MM-DD in loc. Empty input means
// today and is passed through as empty.
func parseDay(input string, now time.Time, loc *time.Location) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if domain.ValidDay(input) {
		return input, nil
	}
	if strings.EqualFold(input, "today") || strings.EqualFold(input, "now") {
		return domain.FormatDay(now, loc), nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now.In(loc),
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return "", fmt.Errorf("cannot understand day %q: %w", input, err)
	}
	return domain.FormatDay(result.Time, loc), nil
}
