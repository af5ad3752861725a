package rules

// Decision is the result of evaluating a predicate chain.
type Decision struct {
	Passed bool
	// Failed names the predicate that rejected, empty when Passed.
	Failed string
	// Evaluated counts the predicates that ran.
	Evaluated int
}

// Evaluate runs preds in order against facts and stops at the first false.
// A nil cfg means the template has no rules and passes without running anything.
func Evaluate(cfg *Config, preds []Predicate, facts Facts) Decision {
	if cfg == nil {
		return Decision{Passed: true}
	}

	d := Decision{Passed: true}
	for _, p := range preds {
		d.Evaluated++
		if !p.Check(cfg, facts) {
			d.Passed = false
			d.Failed = p.Name
			return d
		}
	}
	return d
}
