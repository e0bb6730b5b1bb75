package database

import (
	"context"
	"sort"
	"sync"

	"dev.arena.debate/internal/models"
)

// MemoryStore implements Store with in-process maps. It is used in
// standalone mode when PostgreSQL is unreachable at boot, and by tests.
type MemoryStore struct {
	mu           sync.RWMutex
	debates      map[string]models.Debate
	participants map[string][]models.Participant // debate id → ordered participants
	turns        map[string][]models.Turn        // debate id → ordered turns
	turnScores   map[string][]models.TurnScore   // debate id → scores in turn order
	finalScores  map[string]models.FinalScore    // debate id → final score
	players      map[string]models.Player
	users        map[string]models.User // username → user
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debates:      make(map[string]models.Debate),
		participants: make(map[string][]models.Participant),
		turns:        make(map[string][]models.Turn),
		turnScores:   make(map[string][]models.TurnScore),
		finalScores:  make(map[string]models.FinalScore),
		players:      make(map[string]models.Player),
		users:        make(map[string]models.User),
	}
}

func (m *MemoryStore) CreateDebate(_ context.Context, d *models.Debate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debates[d.ID] = *d
	return nil
}

func (m *MemoryStore) GetDebate(_ context.Context, id string) (*models.Debate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.debates[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := d
	return &out, nil
}

func (m *MemoryStore) UpdateDebateStatus(_ context.Context, id string, status models.DebateStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debates[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	m.debates[id] = d
	return nil
}

func (m *MemoryStore) CreateParticipant(_ context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.DebateID] = append(m.participants[p.DebateID], *p)
	return nil
}

func (m *MemoryStore) ListParticipants(_ context.Context, debateID string) ([]models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Participant, len(m.participants[debateID]))
	copy(out, m.participants[debateID])
	return out, nil
}

func (m *MemoryStore) GetParticipant(_ context.Context, id string) (*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, list := range m.participants {
		for _, p := range list {
			if p.ID == id {
				out := p
				return &out, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateTurn(_ context.Context, t *models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[t.DebateID] = append(m.turns[t.DebateID], *t)
	return nil
}

func (m *MemoryStore) ListTurns(_ context.Context, debateID string) ([]models.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Turn, len(m.turns[debateID]))
	copy(out, m.turns[debateID])
	return out, nil
}

func (m *MemoryStore) CreateTurnScore(_ context.Context, s *models.TurnScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnScores[s.DebateID] = append(m.turnScores[s.DebateID], *s)
	return nil
}

func (m *MemoryStore) ListTurnScores(_ context.Context, debateID string) ([]models.TurnScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.TurnScore, len(m.turnScores[debateID]))
	copy(out, m.turnScores[debateID])
	return out, nil
}

func (m *MemoryStore) UpsertFinalScore(_ context.Context, s *models.FinalScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalScores[s.DebateID] = *s
	return nil
}

func (m *MemoryStore) GetFinalScore(_ context.Context, debateID string) (*models.FinalScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.finalScores[debateID]
	if !ok {
		return nil, ErrNotFound
	}
	out := s
	return &out, nil
}

func (m *MemoryStore) GetPlayer(_ context.Context, id string) (*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *MemoryStore) SavePlayer(_ context.Context, p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = *p
	return nil
}

func (m *MemoryStore) ListTopPlayers(_ context.Context, limit, offset int) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.Player, 0, len(m.players))
	for _, p := range m.players {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []models.Player{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = *u
	return nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}
