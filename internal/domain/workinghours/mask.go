package workinghours

// Mask classifies (weekday, hour) cells of the week grid.
// The zero Mask, and a Mask built from a nil or unparseable Config, reports
// every cell available so a missing config never greys out the grid.
type Mask struct {
	configured bool
	days       [7]bool
	start, end float64
}

// NewMask builds a Mask from cfg. A nil cfg means "not configured yet".
// PRE: none
// POST: Returns a Mask; fail-open when cfg is nil or its times do not parse
func NewMask(cfg *Config) Mask {
	if cfg == nil {
		return Mask{}
	}
	start, err := cfg.StartHour()
	if err != nil {
		return Mask{}
	}
	end, err := cfg.EndHour()
	if err != nil {
		return Mask{}
	}
	m := Mask{configured: true, start: start, end: end}
	for _, d := range cfg.WorkDays {
		if d >= 0 && d < 7 {
			m.days[d] = true
		}
	}
	return m
}

// Configured reports whether the mask reflects a saved config.
func (m Mask) Configured() bool {
	return m.configured
}

// IsAvailable reports whether hour (fractional, e.g. 16.98 for 16:59) on
// weekday day (0 = Sunday) falls inside the working window.
// PRE: none
// POST: false for any day outside WorkDays; otherwise start <= hour < end
func (m Mask) IsAvailable(day int, hour float64) bool {
	if !m.configured {
		return true
	}
	if day < 0 || day > 6 || !m.days[day] {
		return false
	}
	return hour >= m.start && hour < m.end
}
