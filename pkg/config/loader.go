package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by configs with invariants beyond their env tags.
type Validator interface {
	Validate() error
}

// Load fills cfg from environment variables declared with `env` tags, then
// runs cfg.Validate when cfg implements Validator. Every unparsable or
// missing variable is reported, not only the first.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) && len(agg.Errors) > 1 {
			msgs := make([]string, 0, len(agg.Errors))
			for _, e := range agg.Errors {
				msgs = append(msgs, e.Error())
			}
			return fmt.Errorf("parse config: %s: %w", strings.Join(msgs, "; "), err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}
