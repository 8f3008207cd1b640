package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/civickit/grievance-service/internal/domain"
)

// memoryStore keeps tickets in a mutex-guarded map. It backs the service
// when no Postgres DSN is configured and carries the whole test suite.
// All tickets cross the boundary as deep copies so no caller ever holds a
// reference into the store.
type memoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryStore returns an empty in-memory TicketStore.
func NewMemoryStore() TicketStore {
	return &memoryStore{tickets: make(map[string]*domain.Ticket)}
}

func (s *memoryStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (s *memoryStore) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	matched := make([]*domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if matchesFilter(ticket, filter) {
			matched = append(matched, ticket)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	result := make([]domain.Ticket, 0, len(matched))
	for _, ticket := range matched {
		result = append(result, *ticket.Clone())
	}
	return result, nil
}

func (s *memoryStore) UpdateVersioned(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.FiledBy != nil && ticket.FiledBy != *filter.FiledBy {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.ServiceTypes) > 0 && !containsService(filter.ServiceTypes, ticket.ServiceType) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	return true
}

func containsStatus(values []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsService(values []domain.ServiceType, v domain.ServiceType) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsPriority(values []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
