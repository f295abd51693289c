// Agent spawning: the initial population and newborns.
// Every new agent starts unemployed and is picked up by application intake
// on the next tick without any further signal.
package agents

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/labormarket/internal/entropy"
)

// SpawnConfig controls the birth process.
type SpawnConfig struct {
	// BirthsPerSecond is the mean birth rate per elapsed second.
	BirthsPerSecond float64

	// FluctuationAmplitude modulates the birth rate with smooth noise over
	// game time: rate × (1 + amplitude × noise). 0 disables it.
	FluctuationAmplitude float64

	// FluctuationPeriodYears is the rough length of one boom/bust cycle.
	FluctuationPeriodYears float64
}

// Spawner creates agents for the simulation.
type Spawner struct {
	src    *entropy.Source
	noise  opensimplex.Noise
	cfg    SpawnConfig
	nextID AgentID
}

// NewSpawner creates an agent spawner drawing from src.
func NewSpawner(src *entropy.Source, cfg SpawnConfig) *Spawner {
	if cfg.FluctuationPeriodYears <= 0 {
		cfg.FluctuationPeriodYears = 10
	}
	return &Spawner{
		src:    src,
		noise:  opensimplex.New(src.Seed()),
		cfg:    cfg,
		nextID: 1,
	}
}

// Rate returns the birth rate per elapsed second at game time gameNow (seconds).
func (s *Spawner) Rate(gameNow float64) float64 {
	rate := s.cfg.BirthsPerSecond
	if s.cfg.FluctuationAmplitude == 0 {
		return rate
	}
	years := gameNow / SecondsPerYear
	n := s.noise.Eval2(years/s.cfg.FluctuationPeriodYears, 0)
	rate *= 1 + s.cfg.FluctuationAmplitude*n
	return math.Max(rate, 0)
}

// Births samples the newborns for one tick of dt elapsed seconds.
func (s *Spawner) Births(dt, gameNow float64, tick uint64) []*Agent {
	n := s.src.Poisson(s.Rate(gameNow) * dt)
	if n == 0 {
		return nil
	}
	born := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		born = append(born, s.spawnOne(0, tick))
	}
	return born
}

// SpawnPopulation creates count agents with a working-age weighted age spread.
func (s *Spawner) SpawnPopulation(count int, tick uint64) []*Agent {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		agents = append(agents, s.spawnOne(s.weightedAge(), tick))
	}
	return agents
}

func (s *Spawner) spawnOne(age float64, tick uint64) *Agent {
	id := s.nextID
	s.nextID++

	sex := SexMale
	if s.src.Float() < 0.5 {
		sex = SexFemale
	}

	a := &Agent{
		ID:       id,
		Name:     s.generateName(sex),
		Sex:      sex,
		Age:      age,
		BornTick: tick,
		Alive:    true,
	}
	a.Tag(TagUnemployed)
	return a
}

func (s *Spawner) weightedAge() float64 {
	// Bell curve centered around 30, range 0 to 70.
	age := 30.0 + s.src.NormFloat()*15.0
	return math.Min(math.Max(age, 0), 70)
}

func (s *Spawner) generateName(sex Sex) string {
	firsts := maleNames
	if sex == SexFemale {
		firsts = femaleNames
	}
	first := firsts[s.src.Intn(len(firsts))]
	last := lastNames[s.src.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
}

var lastNames = []string{
	"Voss", "Thornwood", "Ashford", "Dunmore", "Greenvale", "Millward",
	"Copperfield", "Silverdale", "Deepwell", "Brightwater", "Redforge",
	"Marshwood", "Riverstone", "Holloway", "Farrow", "Thatcher",
	"Caldwell", "Harper", "Mercer", "Ward", "Cross",
}
