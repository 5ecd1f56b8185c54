package models

// EmptyTimerHours marks an unused timer slot.
const EmptyTimerHours = 655

// TimeOfDay is a timer boundary.
type TimeOfDay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Timer is a recipe timer slot configured on a panel. Number is the 1-based
// slot position and is assigned from the list order.
type Timer struct {
	Number  int        `json:"-"`
	Name    string     `json:"name"`
	Enabled Flag       `json:"enabled"`
	From    *TimeOfDay `json:"from,omitempty"`
	To      *TimeOfDay `json:"to,omitempty"`
	Days    []int      `json:"days,omitempty"`
}

// Empty reports whether the slot is unused: no name, no start time, or the
// sentinel start hour.
func (t Timer) Empty() bool {
	return t.Name == "" || t.From == nil || t.From.Hours == EmptyTimerHours
}

// Effect is one recipe effect available for mode editing.
type Effect struct {
	ID   int64  `json:"effect_id"`
	Name string `json:"effect_name"`
	Type string `json:"effect_type"`
}

// ThemeImage is a downloadable branding or help image.
type ThemeImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
