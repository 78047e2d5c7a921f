// Package testutil holds in-memory doubles for the repository and
// infrastructure interfaces used in unit tests.
package testutil

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	"github.com/oksasatya/zenplan-api/internal/domain/repository"
)

// ActivityRepo is a map-backed repository.ActivityRepository.
type ActivityRepo struct {
	mu    sync.Mutex
	items map[string]entity.Activity
	clock time.Time
	// Err, when set, is returned by every call.
	Err error
}

func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{
		items: map[string]entity.Activity{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now advances a fake clock so creation order is strict.
func (r *ActivityRepo) now() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *ActivityRepo) Create(_ context.Context, a *entity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a.ID = uuid.NewString()
	a.Completed = false
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	r.items[a.ID] = *a
	return nil
}

func (r *ActivityRepo) ListByUser(_ context.Context, userID string) ([]entity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.owned(userID), nil
}

func (r *ActivityRepo) Update(_ context.Context, userID, id string, patch entity.ActivityPatch) (*entity.Activity, error) {
	return r.mutate(userID, id, func(a *entity.Activity) { patch.Apply(a) })
}

func (r *ActivityRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a, ok := r.items[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ActivityRepo) Toggle(_ context.Context, userID, id string) (*entity.Activity, error) {
	return r.mutate(userID, id, func(a *entity.Activity) { a.Completed = !a.Completed })
}

func (r *ActivityRepo) CompleteAll(_ context.Context, userID string) ([]entity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]entity.Activity, 0)
	for _, a := range r.owned(userID) {
		if a.Completed {
			continue
		}
		a.Completed = true
		a.UpdatedAt = r.now()
		r.items[a.ID] = a
		out = append(out, a)
	}
	return out, nil
}

// Count returns the number of stored activities across all users.
func (r *ActivityRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *ActivityRepo) mutate(userID, id string, fn func(*entity.Activity)) (*entity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.items[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = r.now()
	r.items[id] = a
	return &a, nil
}

func (r *ActivityRepo) owned(userID string) []entity.Activity {
	out := make([]entity.Activity, 0)
	for _, a := range r.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// UserRepo is a map-backed repository.UserRepository keyed by id.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]entity.User{}}
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

// Index is an in-memory search index matching on lower-cased substrings.
type Index struct {
	mu   sync.Mutex
	docs map[string]entity.Activity
	// Err, when set, is returned by Search.
	Err error
}

func NewIndex() *Index {
	return &Index{docs: map[string]entity.Activity{}}
}

func (i *Index) Index(_ context.Context, a entity.Activity) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs[a.ID] = a
	return nil
}

func (i *Index) Delete(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.docs, id)
	return nil
}

// Search ignores the owner filter on purpose so tests can check that the
// caller drops foreign hits.
func (i *Index) Search(_ context.Context, _ string, query string, size int) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.Err != nil {
		return nil, i.Err
	}
	q := strings.ToLower(query)
	ids := make([]string, 0)
	for id, a := range i.docs {
		if strings.Contains(strings.ToLower(a.Title), q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > size {
		ids = ids[:size]
	}
	return ids, nil
}

// Has reports whether id is indexed.
func (i *Index) Has(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.docs[id]
	return ok
}

// AvatarStore records uploads in memory.
type AvatarStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewAvatarStore() *AvatarStore {
	return &AvatarStore{Objects: map[string][]byte{}}
}

func (s *AvatarStore) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[objectPath] = b
	return "https://storage.test/" + objectPath, nil
}
