package shared

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression over decoded JSON data and collects every emitted value.
func Query(data any, expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse jq expression %q: %v", ErrInvalidInput, expr, err)
	}

	var results []any
	iter := query.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if _, halted := err.(*gojq.HaltError); halted {
				break
			}
			return nil, fmt.Errorf("error evaluating jq expression %q: %w", expr, err)
		}
		results = append(results, v)
	}

	return results, nil
}
