// Package metrics publishes the numeric outcome of a function run (volumes
// optimized, predicted monthly cost, ...) to CloudWatch, a Prometheus
// Pushgateway, or both.
package metrics

import (
	"context"
	"errors"
)

// Common CloudWatch units used by the functions.
const (
	UnitCount   = "Count"
	UnitNone    = "None"
	UnitPercent = "Percent"
)

// Datum is one metric observation.
type Datum struct {
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit,omitempty"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// Sink publishes a batch of data under a namespace such as
// "CostOptimization" or "CostOptimization/ML".
type Sink interface {
	Publish(ctx context.Context, namespace string, data []Datum) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, string, []Datum) error { return nil }

// Fanout publishes to every sink and joins their errors. A failing sink does
// not stop the others.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, namespace string, data []Datum) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, namespace, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
