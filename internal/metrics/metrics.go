// Package metrics implements the optional block similarity metrics and
// the registry they are selected from at request time. A metric is
// requested by name with optional positional parameters, e.g.
// "jaccard:2:true". The registry is closed: unknown names are an error.
package metrics

import (
	"fmt"
	"strings"
)

// Func computes a metric over two chromosomes given as ordered family
// slices. args carries the unparsed positional parameters from the
// request.
type Func func(a, b []string, args []string) (float64, error)

var registry = map[string]Func{
	"levenshtein": levenshteinMetric,
	"jaccard":     jaccardMetric,
}

// Parse splits a metric request of the form "name:arg1:arg2" into its
// name and positional parameters.
func Parse(request string) (name string, args []string) {
	parts := strings.Split(request, ":")
	return parts[0], parts[1:]
}

// Validate checks that every requested metric names a registered metric
// and that its parameters parse.
func Validate(requests []string) error {
	for _, request := range requests {
		name, args := Parse(request)
		fn, ok := registry[name]
		if !ok {
			return fmt.Errorf("%q is not a valid metric", request)
		}
		if _, err := fn(nil, nil, args); err != nil {
			return fmt.Errorf("invalid metric %q: %w", request, err)
		}
	}
	return nil
}

// Compute evaluates a metric request over the two family slices.
func Compute(request string, a, b []string) (float64, error) {
	name, args := Parse(request)
	fn, ok := registry[name]
	if !ok {
		return 0, fmt.Errorf("%q is not a valid metric", request)
	}
	return fn(a, b, args)
}
