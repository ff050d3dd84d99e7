// Package coordinator schedules layout computations for a single consumer.
//
// Every accepted submission gets a new request id and supersedes whatever
// was in flight. Results are committed only while their id is still the
// latest, so the published state always reflects the most recent batch no
// matter in which order computations finish. Where the work runs is decided
// by the Executor: a goroutine, a child process, or a serial inline loop.
package coordinator

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/projection"
)

// RequestID identifies one accepted submission. Ids grow monotonically
// within a Coordinator.
type RequestID uint64

// State is the consumer-facing snapshot of a Coordinator.
type State struct {
	RequestID RequestID
	Coords    projection.Coordinates
	Computing bool
}

// Coordinator owns the request counter and the committed coordinate map of
// one session.
type Coordinator struct {
	exec    Executor
	logger  zerolog.Logger
	session string

	mu          sync.Mutex
	nextID      RequestID
	fingerprint string
	submitted   bool
	state       State
	cancel      func()
	updates     chan State
	idle        chan struct{}
	idleClosed  bool
	closed      bool
}

func New(exec Executor, logger zerolog.Logger) *Coordinator {
	session := uuid.NewString()
	idle := make(chan struct{})
	close(idle)

	c := &Coordinator{
		exec:       exec,
		session:    session,
		updates:    make(chan State, 1),
		idle:       idle,
		idleClosed: true,
		state:      State{Coords: projection.Coordinates{}},
	}
	c.logger = logger.With().
		Str("component", "coordinator").
		Str("session", session).
		Str("mode", string(exec.Mode())).
		Logger()
	return c
}

// Session returns the unique id of this coordinator.
func (c *Coordinator) Session() string {
	return c.session
}

// Mode reports how computations are executed.
func (c *Coordinator) Mode() Mode {
	return c.exec.Mode()
}

// Submit schedules a layout for items and returns the id it was accepted
// under. Submitting the same ordered ids as the last accepted batch does
// nothing and returns the current id.
//
// Batches smaller than projection.MinPoints are settled immediately with an
// empty map and never reach the executor.
func (c *Coordinator) Submit(items []layout.Item) RequestID {
	fingerprint := Fingerprint(items)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.nextID
	}
	if c.submitted && fingerprint == c.fingerprint {
		return c.nextID
	}

	c.submitted = true
	c.fingerprint = fingerprint
	c.nextID++
	id := c.nextID

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if len(items) < projection.MinPoints {
		c.logger.Debug().Uint64("request", uint64(id)).Int("items", len(items)).Msg("batch too small, settling empty")
		c.publishLocked(State{RequestID: id, Coords: projection.Coordinates{}})
		return id
	}

	c.logger.Debug().Uint64("request", uint64(id)).Int("items", len(items)).Msg("dispatching layout")
	c.publishLocked(State{RequestID: id, Coords: c.state.Coords, Computing: true})
	c.cancel = c.exec.Dispatch(id, slices.Clone(items), c.complete)
	return id
}

// Invalidate forgets the fingerprint of the last accepted batch, so the next
// Submit is dispatched even when it carries the same ids. Use it when the
// content behind the ids has changed. The committed map is kept.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitted = false
	c.fingerprint = ""
}

func (c *Coordinator) complete(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || res.RequestID != c.nextID {
		c.logger.Debug().
			Uint64("request", uint64(res.RequestID)).
			Uint64("current", uint64(c.nextID)).
			Msg("discarding stale result")
		return
	}
	c.cancel = nil

	coords := res.Coords
	if res.Err != nil {
		c.logger.Error().Err(res.Err).Uint64("request", uint64(res.RequestID)).Msg("layout failed")
		coords = nil
	}
	if coords == nil {
		coords = projection.Coordinates{}
	}

	c.logger.Debug().Uint64("request", uint64(res.RequestID)).Int("points", len(coords)).Msg("layout committed")
	c.publishLocked(State{RequestID: res.RequestID, Coords: coords})
}

// publishLocked replaces the state and offers it on the updates channel,
// replacing any snapshot the consumer has not read yet.
func (c *Coordinator) publishLocked(state State) {
	c.state = state

	select {
	case <-c.updates:
	default:
	}
	c.updates <- state

	switch {
	case state.Computing && c.idleClosed:
		c.idle = make(chan struct{})
		c.idleClosed = false
	case !state.Computing && !c.idleClosed:
		close(c.idle)
		c.idleClosed = true
	}
}

// State returns the latest published snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates delivers published states. Only the most recent unread state is
// kept, so a slow reader skips intermediate snapshots.
func (c *Coordinator) Updates() <-chan State {
	return c.updates
}

// Wait blocks until no computation is pending and returns the settled state.
func (c *Coordinator) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}

		c.mu.Lock()
		state := c.state
		c.mu.Unlock()
		if !state.Computing {
			return state, nil
		}
	}
}

// Close cancels in-flight work, settles the state and shuts the executor
// down. Later submissions are ignored.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state.Computing {
		c.publishLocked(State{RequestID: c.state.RequestID, Coords: c.state.Coords})
	}
	c.mu.Unlock()

	return c.exec.Close()
}

// Fingerprint identifies a batch by its ordered item ids.
func Fingerprint(items []layout.Item) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(item.ID))
	}
	return b.String()
}
