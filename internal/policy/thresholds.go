package policy

// GetThreshold returns the params[key] override configured for ruleID, such
// as min_cost_usd on ACCOUNT_COST_SPIKE or min_impact_usd on COST_ANOMALY_HIGH_IMPACT.
// def is returned when cfg is nil or carries no override for the pair.
func GetThreshold(ruleID, key string, def float64, cfg *PolicyConfig) float64 {
	if cfg == nil {
		return def
	}
	if v, ok := cfg.Rules[ruleID].Params[key]; ok {
		return v
	}
	return def
}
