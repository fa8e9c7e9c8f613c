// Package pricing supplies the hourly and unit prices used to estimate
// monthly savings. Callers depend on the Provider interface so tests can
// pin prices without touching the embedded tables.
package pricing

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HoursPerMonth converts hourly prices to monthly estimates.
const HoursPerMonth = 730.0

// Provider resolves prices for resource classes and billable units.
type Provider interface {
	// HourlyCost returns the on-demand hourly price for an instance or
	// database class. ok is false when the class is not in the table, in
	// which case the returned price is the table's fallback.
	HourlyCost(class string) (price float64, ok bool)

	// UnitCost returns the price of a non-hourly item such as "ebs:gp2"
	// (per GB-month) or "estimate:cloudfront" (flat monthly estimate).
	UnitCost(item string) (price float64, ok bool)

	// SmallerClass returns the next size down for class, if one is known.
	SmallerClass(class string) (string, bool)
}

// Table is the on-disk pricing format.
type Table struct {
	DefaultHourly float64            `yaml:"default_hourly"`
	Hourly        map[string]float64 `yaml:"hourly"`
	Units         map[string]float64 `yaml:"units"`
	Downsize      map[string]string  `yaml:"downsize"`
}

//go:embed defaults.yaml
var defaultTable []byte

// StaticProvider serves prices from an in-memory Table.
type StaticProvider struct {
	table Table
}

// NewStaticProvider returns a provider over t. Nil maps are treated as empty.
func NewStaticProvider(t Table) *StaticProvider {
	if t.Hourly == nil {
		t.Hourly = map[string]float64{}
	}
	if t.Units == nil {
		t.Units = map[string]float64{}
	}
	if t.Downsize == nil {
		t.Downsize = map[string]string{}
	}
	return &StaticProvider{table: t}
}

// Default returns a provider over the embedded list prices.
// It panics if the embedded table is malformed.
func Default() *StaticProvider {
	t, err := parseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded pricing table: %v", err))
	}
	return NewStaticProvider(t)
}

// LoadFile returns the embedded list prices overlaid with the entries in
// the YAML file at path. Entries in the file win; everything else keeps
// its default. An empty path returns Default().
func LoadFile(path string) (*StaticProvider, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file %q: %w", path, err)
	}
	override, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse pricing file %q: %w", path, err)
	}

	merged := base.table
	if override.DefaultHourly > 0 {
		merged.DefaultHourly = override.DefaultHourly
	}
	for k, v := range override.Hourly {
		merged.Hourly[k] = v
	}
	for k, v := range override.Units {
		merged.Units[k] = v
	}
	for k, v := range override.Downsize {
		merged.Downsize[k] = v
	}
	return NewStaticProvider(merged), nil
}

func parseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, err
	}
	for k, v := range t.Hourly {
		if v < 0 {
			return Table{}, fmt.Errorf("hourly.%s: negative price %v", k, v)
		}
	}
	for k, v := range t.Units {
		if v < 0 {
			return Table{}, fmt.Errorf("units.%s: negative price %v", k, v)
		}
	}
	return t, nil
}

// HourlyCost implements Provider.
func (p *StaticProvider) HourlyCost(class string) (float64, bool) {
	if v, ok := p.table.Hourly[class]; ok {
		return v, true
	}
	return p.table.DefaultHourly, false
}

// UnitCost implements Provider.
func (p *StaticProvider) UnitCost(item string) (float64, bool) {
	v, ok := p.table.Units[item]
	return v, ok
}

// SmallerClass implements Provider.
func (p *StaticProvider) SmallerClass(class string) (string, bool) {
	v, ok := p.table.Downsize[class]
	return v, ok && v != ""
}

// MonthlyCost returns the monthly on-demand cost of class under p.
func MonthlyCost(p Provider, class string) float64 {
	hourly, _ := p.HourlyCost(class)
	return hourly * HoursPerMonth
}

// MonthlyUnitCost returns an hourly unit price expressed per month.
func MonthlyUnitCost(p Provider, item string) float64 {
	hourly, _ := p.UnitCost(item)
	return hourly * HoursPerMonth
}
