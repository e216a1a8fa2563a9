package physics

import (
	"fmt"
	"iter"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type slot struct {
	body    Body
	live    bool
	doomed  bool // removal requested during a step
	pending bool // created during a step, hidden until it ends
}

func (s *slot) visible() bool {
	return s.live && !s.pending
}

// Store owns body state in a flat slice kept in insertion order. Removed bodies leave
// tombstones that are compacted away once they outnumber the live ones. During a step
// removals are deferred and new bodies stay hidden, so index-based passes over slots
// never see the slice reshuffled underneath them.
type Store struct {
	slots     []slot
	index     map[BodyID]int
	nextID    BodyID
	maxBodies int
	live      int
	dead      int

	stepping  bool
	iterating int
	doomed    []BodyID
	spawned   bool
}

// NewStore returns an empty store. maxBodies <= 0 means no cap.
func NewStore(maxBodies int) *Store {
	return &Store{
		slots:     make([]slot, 0, 64),
		index:     make(map[BodyID]int),
		maxBodies: maxBodies,
	}
}

// Len returns the number of live bodies, including ones created or doomed during the current step.
func (s *Store) Len() int {
	return s.live
}

// Create allocates an active body at rest.
func (s *Store) Create(position mgl32.Vec3, radius, mass float32) (BodyID, error) {
	if !validShape(radius, mass) || !finiteVec(position) {
		return 0, fmt.Errorf("create radius=%v mass=%v: %w", radius, mass, ErrInvalidBody)
	}
	if s.maxBodies > 0 && s.live >= s.maxBodies {
		return 0, fmt.Errorf("create: %d bodies: %w", s.live, ErrCapacityExceeded)
	}
	if s.nextID == math.MaxUint32 {
		return 0, fmt.Errorf("create: id space exhausted: %w", ErrCapacityExceeded)
	}
	s.nextID++
	id := s.nextID
	s.index[id] = len(s.slots)
	s.slots = append(s.slots, slot{
		body: Body{
			ID:       id,
			Position: position,
			Radius:   radius,
			Mass:     mass,
			Active:   true,
		},
		live:    true,
		pending: s.stepping,
	})
	if s.stepping {
		s.spawned = true
	}
	s.live++
	return id, nil
}

// Remove deletes a body. Inside a step the body stays in place until the step ends.
func (s *Store) Remove(id BodyID) error {
	i, ok := s.index[id]
	if !ok || s.slots[i].doomed {
		return fmt.Errorf("remove %d: %w", id, ErrNotFound)
	}
	if s.stepping {
		s.slots[i].doomed = true
		s.doomed = append(s.doomed, id)
		return nil
	}
	s.kill(i)
	s.maybeCompact()
	return nil
}

// Get returns a snapshot of the body.
func (s *Store) Get(id BodyID) (Body, error) {
	sl, err := s.lookup(id)
	if err != nil {
		return Body{}, err
	}
	return sl.body, nil
}

// SetVelocity replaces the body's velocity.
func (s *Store) SetVelocity(id BodyID, v mgl32.Vec3) error {
	if !finiteVec(v) {
		return fmt.Errorf("set velocity %d: %w", id, ErrInvalidBody)
	}
	sl, err := s.lookup(id)
	if err != nil {
		return err
	}
	sl.body.Velocity = v
	return nil
}

// SetActive toggles whether the body takes part in integration and collision.
func (s *Store) SetActive(id BodyID, active bool) error {
	sl, err := s.lookup(id)
	if err != nil {
		return err
	}
	sl.body.Active = active
	return nil
}

// Active yields snapshots of active bodies in insertion order. Each call rescans current state.
func (s *Store) Active() iter.Seq[Body] {
	return s.seq(true)
}

// All yields snapshots of every visible body, active or not, in insertion order.
func (s *Store) All() iter.Seq[Body] {
	return s.seq(false)
}

func (s *Store) seq(activeOnly bool) iter.Seq[Body] {
	return func(yield func(Body) bool) {
		s.iterating++
		defer func() { s.iterating-- }()
		for i := 0; i < len(s.slots); i++ {
			sl := &s.slots[i]
			if !sl.visible() || (activeOnly && !sl.body.Active) {
				continue
			}
			if !yield(sl.body) {
				return
			}
		}
	}
}

func (s *Store) lookup(id BodyID) (*slot, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("body %d: %w", id, ErrNotFound)
	}
	return &s.slots[i], nil
}

func (s *Store) beginStep() {
	s.stepping = true
}

// endStep applies deferred removals and reveals bodies created during the step.
func (s *Store) endStep() {
	s.stepping = false
	for _, id := range s.doomed {
		if i, ok := s.index[id]; ok {
			s.kill(i)
		}
	}
	s.doomed = s.doomed[:0]
	if s.spawned {
		for i := range s.slots {
			s.slots[i].pending = false
		}
		s.spawned = false
	}
	s.maybeCompact()
}

func (s *Store) kill(i int) {
	sl := &s.slots[i]
	delete(s.index, sl.body.ID)
	*sl = slot{}
	s.live--
	s.dead++
}

func (s *Store) maybeCompact() {
	if s.stepping || s.iterating > 0 || s.dead <= s.live {
		return
	}
	w := 0
	for _, sl := range s.slots {
		if !sl.live {
			continue
		}
		s.slots[w] = sl
		s.index[sl.body.ID] = w
		w++
	}
	clear(s.slots[w:])
	s.slots = s.slots[:w]
	s.dead = 0
}
