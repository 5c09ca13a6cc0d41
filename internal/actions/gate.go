package actions

import "sync"

// Gate holds a destructive mutation until it is confirmed and tracks whether
// a mutation guarded by it is in flight.
type Gate struct {
	mu       sync.Mutex
	pending  *Mutation
	prompt   Prompt
	inFlight bool
}

// Prompt is the text of a confirmation dialog.
type Prompt struct {
	Title   string
	Body    string
	Confirm string
	Cancel  string
}

// Ask parks m behind a confirmation. A later Ask replaces an unconfirmed one.
func (g *Gate) Ask(p Prompt, m Mutation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m.gate = g
	g.pending = &m
	g.prompt = p
}

// Pending returns the prompt of the mutation awaiting confirmation.
func (g *Gate) Pending() (Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt, g.pending != nil
}

func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
	g.prompt = Prompt{}
}

// take hands out the pending mutation exactly once.
func (g *Gate) take() (Mutation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Mutation{}, false
	}
	m := *g.pending
	g.pending = nil
	g.prompt = Prompt{}
	return m, true
}

func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Guard ties m to the gate's in-flight flag without a confirmation step.
func (g *Gate) Guard(m Mutation) Mutation {
	m.gate = g
	return m
}

func (g *Gate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	g.inFlight = true
	return true
}

func (g *Gate) done() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}
