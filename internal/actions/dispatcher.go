// Package actions turns menu clicks into remote mutations and cache patches.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"folio-cli/internal/cache"
	"folio-cli/internal/menu"
	"folio-cli/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSkipped is returned when a required variable is missing; nothing was sent.
var ErrSkipped = errors.New("skipped: missing required variable")

// ErrBusy is returned when the gate already has a mutation in flight.
var ErrBusy = errors.New("busy: mutation already in flight")

// Patch mutates the cache inside one transaction.
type Patch func(tx *cache.Tx)

type Mutation struct {
	Name string
	// Requires names variables that must be non-empty before anything runs.
	Requires map[string]string
	// Call performs the remote mutation and returns the patch for its result.
	Call func(ctx context.Context) (Patch, error)
	// Optimistic, when set, is layered over the cache until Call settles.
	Optimistic Patch

	SuccessMessage string
	ErrorMessage   string

	gate *Gate
}

func (m Mutation) missing() []string {
	var out []string
	for k, v := range m.Requires {
		if v == "" {
			out = append(out, k)
		}
	}
	return out
}

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

type Result struct {
	Action  string        `json:"action"`
	Outcome Outcome       `json:"outcome"`
	Error   string        `json:"error,omitempty"`
	Took    time.Duration `json:"took"`

	Err error `json:"-"`
}

type Dispatcher struct {
	Cache  *cache.Store
	Notify notify.Notifier
	Log    zerolog.Logger
	// Spawn runs a settled mutation body. Nil runs it inline.
	Spawn func(run func() Result)

	pending sync.WaitGroup
}

func NewDispatcher(c *cache.Store, n notify.Notifier, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{Cache: c, Notify: n, Log: log}
}

// Dispatch is the click handler of every action item: it stops the event,
// checks required variables and then runs the mutation through Spawn.
func (d *Dispatcher) Dispatch(ev *menu.Event, m Mutation) error {
	ev.StopPropagation()
	if miss := m.missing(); len(miss) > 0 {
		d.Log.Debug().Str("action", m.Name).Strs("missing", miss).Msg("action skipped")
		return ErrSkipped
	}
	if m.gate != nil && !m.gate.begin() {
		return ErrBusy
	}
	ctx := ev.Context()
	run := func() Result { return d.settle(ctx, m) }

	if d.Spawn == nil {
		run()
		return nil
	}
	d.pending.Add(1)
	d.Spawn(func() Result {
		defer d.pending.Done()
		return run()
	})
	return nil
}

// Run executes m synchronously and reports how it settled.
func (d *Dispatcher) Run(ctx context.Context, m Mutation) Result {
	if miss := m.missing(); len(miss) > 0 {
		return Result{Action: m.Name, Outcome: OutcomeSkipped, Err: ErrSkipped, Error: ErrSkipped.Error()}
	}
	if m.gate != nil && !m.gate.begin() {
		return Result{Action: m.Name, Outcome: OutcomeSkipped, Err: ErrBusy, Error: ErrBusy.Error()}
	}
	return d.settle(ctx, m)
}

// Wait blocks until every spawned mutation has settled.
func (d *Dispatcher) Wait() { d.pending.Wait() }

func (d *Dispatcher) settle(ctx context.Context, m Mutation) Result {
	if m.gate != nil {
		defer m.gate.done()
	}
	start := time.Now()
	res := Result{Action: m.Name}

	layer := ""
	if m.Optimistic != nil {
		layer = m.Name + ":" + uuid.NewString()
		d.Cache.AddOptimistic(layer, m.Optimistic)
		// Settle drops the layer; this only matters when Call panics.
		defer d.Cache.RemoveOptimistic(layer)
	}

	patch, err := m.Call(ctx)
	var apply func(tx *cache.Tx) error
	if err == nil && patch != nil {
		apply = func(tx *cache.Tx) error {
			patch(tx)
			return nil
		}
	}
	if perr := d.Cache.Settle(layer, apply); perr != nil {
		err = fmt.Errorf("apply cache patch: %w", perr)
	}
	res.Took = time.Since(start)

	if err != nil {
		res.Outcome, res.Err, res.Error = OutcomeFailed, err, err.Error()
		d.Log.Error().Err(err).Str("action", m.Name).Str("outcome", string(res.Outcome)).Dur("took", res.Took).Msg("mutation failed")
		if d.Notify != nil && m.ErrorMessage != "" {
			d.Notify.Error(m.ErrorMessage)
		}
		return res
	}
	res.Outcome = OutcomeOK
	d.Log.Info().Str("action", m.Name).Str("outcome", string(res.Outcome)).Dur("took", res.Took).Msg("mutation settled")
	if d.Notify != nil && m.SuccessMessage != "" {
		d.Notify.Success(m.SuccessMessage)
	}
	return res
}

// Confirm dispatches the mutation parked on g, if any.
func (d *Dispatcher) Confirm(ev *menu.Event, g *Gate) error {
	m, ok := g.take()
	if !ok {
		ev.StopPropagation()
		return ErrSkipped
	}
	return d.Dispatch(ev, m)
}
