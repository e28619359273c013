package accounts

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account already exists")
)

// Account is a registered user
type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps accounts in memory, keyed by id and lowercased email
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*Account
	byEmail map[string]*Account
}

func NewStore() *Store {
	return &Store{
		nextID:  1,
		byID:    make(map[int64]*Account),
		byEmail: make(map[string]*Account),
	}
}

// Create stores a new account. The first account is an admin.
func (s *Store) Create(email, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.byEmail[key]; ok {
		return nil, ErrDuplicate
	}
	a := &Account{ID: s.nextID, Email: email, Name: name, CreatedAt: time.Now().UTC()}
	if a.ID == 1 {
		a.Roles = []string{"admin"}
	}
	s.nextID++
	s.byID[a.ID] = a
	s.byEmail[key] = a
	return a, nil
}

func (s *Store) Get(id int64) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Store) ByEmail(email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Search returns one page of accounts whose name or email contains term
func (s *Store) Search(term string, page, size int) []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)
	var matches []*Account
	for _, a := range s.byID {
		if term == "" || strings.Contains(strings.ToLower(a.Name), term) || strings.Contains(strings.ToLower(a.Email), term) {
			matches = append(matches, a)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	start := (page - 1) * size
	if start >= len(matches) {
		return []*Account{}
	}
	end := min(start+size, len(matches))
	return matches[start:end]
}

func (s *Store) UpdateBio(id int64, bio string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Bio = bio
	return a, nil
}
