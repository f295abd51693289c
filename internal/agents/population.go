package agents

// Population is the set of living agents in birth order, with an ID index.
// Iteration order is stable so every stage that walks it is deterministic.
type Population struct {
	agents []*Agent
	index  map[AgentID]*Agent
}

// NewPopulation creates an empty population.
func NewPopulation() *Population {
	return &Population{index: make(map[AgentID]*Agent)}
}

// Add registers a. Adding an ID twice is ignored.
func (p *Population) Add(a *Agent) {
	if _, ok := p.index[a.ID]; ok {
		return
	}
	p.agents = append(p.agents, a)
	p.index[a.ID] = a
}

// Get looks up an agent by ID.
func (p *Population) Get(id AgentID) (*Agent, bool) {
	a, ok := p.index[id]
	return a, ok
}

// Remove drops the agent with the given ID, preserving the order of the rest.
func (p *Population) Remove(id AgentID) bool {
	if _, ok := p.index[id]; !ok {
		return false
	}
	delete(p.index, id)
	for i, a := range p.agents {
		if a.ID == id {
			p.agents = append(p.agents[:i], p.agents[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of agents.
func (p *Population) Len() int {
	return len(p.agents)
}

// All returns the agents in birth order. The slice must not be modified.
func (p *Population) All() []*Agent {
	return p.agents
}

// Tagged returns the agents carrying t, in birth order.
func (p *Population) Tagged(t Tag) []*Agent {
	var out []*Agent
	for _, a := range p.agents {
		if a.Has(t) {
			out = append(out, a)
		}
	}
	return out
}

// CountTagged returns how many agents carry t.
func (p *Population) CountTagged(t Tag) int {
	n := 0
	for _, a := range p.agents {
		if a.Has(t) {
			n++
		}
	}
	return n
}
