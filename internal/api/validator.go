package api

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"LevelSentinel/internal/collector"
)

// Validator checks request parameters before they reach the collector.
type Validator struct {
	tickerRegex *regexp.Regexp
}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{
			// Futures root symbols: NQ, ES, YM, RTY and the like.
			tickerRegex: regexp.MustCompile(`^[A-Z0-9]{1,6}$`),
		}
	})
	return validatorInstance
}

// ValidateTicker normalizes and validates a ticker path parameter.
func (v *Validator) ValidateTicker(ticker string) (string, error) {
	clean := strings.ToUpper(strings.TrimSpace(ticker))
	if clean == "" {
		return "", fmt.Errorf("%w: ticker is required", collector.ErrInvalidInput)
	}
	if !v.tickerRegex.MatchString(clean) {
		return "", fmt.Errorf("%w: ticker %q must be 1-6 alphanumeric characters", collector.ErrInvalidInput, ticker)
	}
	return clean, nil
}
