package weather

import "strings"

var precipitating = map[string]struct{}{
	string(ConditionRain):         {},
	string(ConditionShowerRain):   {},
	string(ConditionThunderstorm): {},
	string(ConditionSnow):         {},
}

// Classify reports whether a condition label means it is precipitating.
// Matching is case-insensitive; unknown and empty labels are dry.
func Classify(label string) bool {
	_, ok := precipitating[strings.ToLower(strings.TrimSpace(label))]
	return ok
}
