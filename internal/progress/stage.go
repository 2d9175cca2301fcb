package progress

// Stage is a named maturity tier derived from the progress value.
type Stage struct {
	Level     int     `json:"level"`
	Title     string  `json:"title"`
	Threshold float64 `json:"threshold"`
}

var stages = []Stage{
	{Level: 1, Title: "Rock-in-Training", Threshold: 0},
	{Level: 2, Title: "Slightly Stronger Rock", Threshold: 0.5},
	{Level: 3, Title: "Weathered Wanderer", Threshold: MaxValue},
}

// StageFor returns the highest stage whose threshold v has reached.
func StageFor(v float64) Stage {
	s := stages[0]
	for _, st := range stages[1:] {
		if v >= st.Threshold {
			s = st
		}
	}
	return s
}
