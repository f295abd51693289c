package records

// Records holds running totals and rolling rates for one simulation run.
type Records struct {
	Births int `json:"births"`
	Deaths int `json:"deaths"`
	Hires  int `json:"hires"`

	BirthRate *RollingMean `json:"-"`
	DeathRate *RollingMean `json:"-"`

	Population     int     `json:"population"`
	Employed       int     `json:"employed"`
	EmploymentRate float64 `json:"employment_rate"`
}

// New creates records whose birth and death rates average over window seconds.
func New(window float64) *Records {
	return &Records{
		BirthRate: NewRollingMean(window),
		DeathRate: NewRollingMean(window),
	}
}

// RecordBirths adds n births at time now.
func (r *Records) RecordBirths(n int, now float64) {
	for i := 0; i < n; i++ {
		r.Births++
		r.BirthRate.Push(now)
	}
}

// RecordDeaths adds n deaths at time now.
func (r *Records) RecordDeaths(n int, now float64) {
	for i := 0; i < n; i++ {
		r.Deaths++
		r.DeathRate.Push(now)
	}
}

// RecordHires adds n committed hires.
func (r *Records) RecordHires(n int) {
	r.Hires += n
}

// Observe refreshes population and employment figures and prunes the rolling
// windows to now.
func (r *Records) Observe(population, unemployed int, now float64) {
	r.Population = population
	r.Employed = max(0, population-unemployed)
	if population > 0 {
		r.EmploymentRate = float64(r.Employed) / float64(population)
	} else {
		r.EmploymentRate = 0
	}
	r.BirthRate.Prune(now)
	r.DeathRate.Prune(now)
}

// Summary is a point-in-time copy of the records, safe to hand to readers.
type Summary struct {
	Births         int     `json:"births" db:"births"`
	Deaths         int     `json:"deaths" db:"deaths"`
	Hires          int     `json:"hires" db:"hires"`
	Population     int     `json:"population" db:"population"`
	Employed       int     `json:"employed" db:"employed"`
	EmploymentRate float64 `json:"employment_rate" db:"employment_rate"`
	BirthRate      float64 `json:"birth_rate" db:"birth_rate"` // per second
	DeathRate      float64 `json:"death_rate" db:"death_rate"` // per second
}

// Summary copies the current figures.
func (r *Records) Summary() Summary {
	return Summary{
		Births:         r.Births,
		Deaths:         r.Deaths,
		Hires:          r.Hires,
		Population:     r.Population,
		Employed:       r.Employed,
		EmploymentRate: r.EmploymentRate,
		BirthRate:      r.BirthRate.Avg(),
		DeathRate:      r.DeathRate.Avg(),
	}
}
