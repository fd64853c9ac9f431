// ABOUTME: Authoritative in-memory collection of deals keyed by stable id
// ABOUTME: Hands out deep copies and serializes mutations per deal id
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/dealflow/models"
)

var (
	ErrNotFound = errors.New("deal not found")
	ErrInvalid  = errors.New("invalid deal")
)

// Store holds deals by value. Callers only ever see clones, so a deal read
// from All or Get can never be observed mid-mutation.
type Store struct {
	mu    sync.RWMutex
	deals map[string]models.Deal
	order []string

	locks *keyedMutex
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source used for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		deals: make(map[string]models.Deal),
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lock serializes mutating work on one deal id. The returned func releases it.
func (s *Store) Lock(id string) (unlock func()) {
	return s.locks.lock(id)
}

func (s *Store) Get(id string) (models.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[id]
	if !ok {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.Clone(), nil
}

// All returns a snapshot of every deal in insertion order.
func (s *Store) All() []models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.deals[id].Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals)
}

// Upsert validates and stores the deal, refreshing UpdatedAt. The stored copy is returned.
func (s *Store) Upsert(d models.Deal) (models.Deal, error) {
	if d.ID == "" {
		return models.Deal{}, fmt.Errorf("%w: missing id", ErrInvalid)
	}

	d = d.Clone()
	d.Tags = models.NormalizeTags(d.Tags)
	d.UpdatedAt = s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.UpdatedAt
	}
	if err := models.ValidateDeal(d); err != nil {
		return models.Deal{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deals[d.ID]; !exists {
		s.order = append(s.order, d.ID)
	}
	s.deals[d.ID] = d
	return d.Clone(), nil
}

// Remove deletes the deal and everything nested in it.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.deals, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the whole collection, as done once after loading from a repository.
// Timestamps are kept as loaded. Nothing changes if any deal is invalid.
func (s *Store) Replace(deals []models.Deal) error {
	next := make(map[string]models.Deal, len(deals))
	order := make([]string, 0, len(deals))

	for _, d := range deals {
		if d.ID == "" {
			return fmt.Errorf("%w: missing id", ErrInvalid)
		}
		if _, dup := next[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalid, d.ID)
		}
		if err := models.ValidateDeal(d); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, d.ID, err)
		}
		next[d.ID] = d.Clone()
		order = append(order, d.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = next
	s.order = order
	return nil
}

// NextDealNumber returns the next DEAL-<year>-<seq> number for the current year.
func (s *Store) NextDealNumber() string {
	year := s.now().Year()
	prefix := fmt.Sprintf("DEAL-%d-", year)

	s.mu.RLock()
	defer s.mu.RUnlock()

	highest := 0
	for _, d := range s.deals {
		if !strings.HasPrefix(d.DealNumber, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(d.DealNumber, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}
