package channel

import (
	"sort"
	"sync"
)

// Repository defines the interface for channel registry operations.
type Repository interface {
	// Insert stores a new channel after validation.
	Insert(ch *Channel) error

	// Update modifies an existing channel.
	Update(ch *Channel) error

	// GetByID retrieves a channel by its ID.
	// Returns ErrChannelNotFound when the channel is not registered.
	GetByID(id string) (*Channel, error)

	// ListEnabled returns all channels the poller should track,
	// ordered by ID.
	ListEnabled() ([]*Channel, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewInMemoryRepository creates a new in-memory channel repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		channels: make(map[string]*Channel),
	}
}

// Insert stores a new channel after validation.
func (r *InMemoryRepository) Insert(ch *Channel) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Copy to avoid external modification.
	cp := *ch
	r.channels[cp.ID] = &cp
	return nil
}

// Update modifies an existing channel.
func (r *InMemoryRepository) Update(ch *Channel) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[ch.ID]; !ok {
		return ErrChannelNotFound
	}
	cp := *ch
	r.channels[cp.ID] = &cp
	return nil
}

// GetByID retrieves a channel by its ID.
func (r *InMemoryRepository) GetByID(id string) (*Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

// ListEnabled returns all enabled channels ordered by ID.
func (r *InMemoryRepository) ListEnabled() ([]*Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Channel
	for _, ch := range r.channels {
		if !ch.Enabled {
			continue
		}
		cp := *ch
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
