package policy

import (
	"fmt"
	"sort"
	"strings"
)

// validSeverities is the set of allowed severity strings (upper-case canonical form).
var validSeverities = map[string]struct{}{
	"CRITICAL": {},
	"HIGH":     {},
	"MEDIUM":   {},
	"LOW":      {},
	"INFO":     {},
}

// Validate checks cfg for semantic correctness and returns all validation errors
// found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - domain and enforcement keys must be one of availableDomains
//   - rule IDs must appear in availableRuleIDs
//   - every severity value (min_severity, rule severity, fail_on_severity)
//     must be a known severity when set
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *PolicyConfig, availableDomains, availableRuleIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	knownDomains := toSet(availableDomains)
	knownIDs := toSet(availableRuleIDs)
	domainList := strings.Join(sorted(availableDomains), ", ")

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for _, name := range sortedKeys(cfg.Domains) {
		dcfg := cfg.Domains[name]
		if _, ok := knownDomains[name]; !ok {
			errs = append(errs, fmt.Errorf("domains.%s: unknown function; valid values: %s", name, domainList))
		}
		if err := checkSeverity("domains."+name+".min_severity", dcfg.MinSeverity); err != nil {
			errs = append(errs, err)
		}
	}

	for _, ruleID := range sortedKeys(cfg.Rules) {
		rcfg := cfg.Rules[ruleID]
		if _, ok := knownIDs[ruleID]; !ok {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule ID", ruleID))
		}
		if err := checkSeverity("rules."+ruleID+".severity", rcfg.Severity); err != nil {
			errs = append(errs, err)
		}
	}

	for _, domain := range sortedKeys(cfg.Enforcement) {
		enfCfg := cfg.Enforcement[domain]
		if _, ok := knownDomains[domain]; !ok {
			errs = append(errs, fmt.Errorf("enforcement.%s: unknown function; valid values: %s", domain, domainList))
		}
		if err := checkSeverity("enforcement."+domain+".fail_on_severity", enfCfg.FailOnSeverity); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func checkSeverity(field, value string) error {
	if value == "" {
		return nil
	}
	if _, ok := validSeverities[strings.ToUpper(value)]; !ok {
		return fmt.Errorf("%s: invalid value %q; valid values: CRITICAL, HIGH, MEDIUM, LOW, INFO", field, value)
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
