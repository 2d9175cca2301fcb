package weather

import "time"

// AggregateReadings combines provider readings into a single Observation.
// Numeric fields are averaged; the condition is the majority label, ties
// going to the reading that comes first. Precipitating is voted separately
// over the classified readings so distinct wet labels do not split the vote;
// a tie follows the majority label.
func AggregateReadings(loc Location, readings []ProviderReading) Observation {
	if len(readings) == 0 {
		return Observation{
			Location:  loc,
			Timestamp: time.Now().UTC(),
			Condition: ConditionUnknown,
		}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
	)

	conditionCounts := make(map[Condition]int)
	order := make([]Condition, 0, len(readings))
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time
	wet := 0

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS

		if conditionCounts[r.Condition] == 0 {
			order = append(order, r.Condition)
		}
		conditionCounts[r.Condition]++
		if Classify(string(r.Condition)) {
			wet++
		}

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
			Condition:    r.Condition,
		})
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range order {
		if conditionCounts[cond] > bestCount {
			bestCount = conditionCounts[cond]
			bestCond = cond
		}
	}

	precip := Classify(string(bestCond))
	if dry := len(readings) - wet; wet != dry {
		precip = wet > dry
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	return Observation{
		Location:      loc,
		Timestamp:     newestTS,
		Temperature:   sumTemp / n,
		Humidity:      sumHumidity / n,
		WindSpeed:     sumWind / n,
		Condition:     bestCond,
		Precipitating: precip,
		Providers:     providers,
	}
}
