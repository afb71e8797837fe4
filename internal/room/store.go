// internal/room/store.go
package room

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mpetras/castdraft/internal/models"
)

// Repository is the persistence collaborator for rooms. Implementations
// return ErrRoomNotFound for unknown ids.
type Repository interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	SaveRoom(ctx context.Context, r *models.Room) error
}

// Store owns the canonical in-memory room per id and mediates every read and
// write against the Repository. Loads are served from the cache once
// populated; concurrent loads of an unpopulated id converge on a single
// repository fetch. Saves write through to persistence before updating the
// cache mapping.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
	group singleflight.Group
	repo  Repository
}

// NewStore returns a room store backed by repo.
func NewStore(repo Repository) *Store {
	return &Store{
		rooms: make(map[string]*models.Room),
		repo:  repo,
	}
}

// Load returns the canonical room for roomID, fetching from the repository
// on first access. Every caller for the same id observes the same *Room
// value; mutations go through its mutex.
func (s *Store) Load(ctx context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	if r, ok := s.rooms[roomID]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(roomID, func() (interface{}, error) {
		// A concurrent flight may have populated the cache between the
		// check above and entering the group.
		s.mu.Lock()
		if r, ok := s.rooms[roomID]; ok {
			s.mu.Unlock()
			return r, nil
		}
		s.mu.Unlock()

		r, err := s.repo.GetRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.rooms[roomID] = r
		s.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Room), nil
}

// Save persists r and keeps it cached. Persistence failure is returned to
// the caller and leaves the cache mapping untouched.
func (s *Store) Save(ctx context.Context, r *models.Room) error {
	if err := s.repo.SaveRoom(ctx, r); err != nil {
		return err
	}
	s.mu.Lock()
	s.rooms[r.ID] = r
	s.mu.Unlock()
	return nil
}

// Put caches a freshly created room without a repository round trip. The
// caller is expected to have inserted it already.
func (s *Store) Put(r *models.Room) {
	s.mu.Lock()
	s.rooms[r.ID] = r
	s.mu.Unlock()
}

// Evict drops a room from the cache. The next Load falls back to the
// repository.
func (s *Store) Evict(roomID string) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
}
