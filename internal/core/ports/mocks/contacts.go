package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

// ContactRepository is a thread-safe in-memory implementation of ports.ContactRepository.
type ContactRepository struct {
	mu       sync.Mutex
	contacts []domain.Contact

	Calls int

	// FetchContactsFn allows overriding FetchContacts behavior.
	FetchContactsFn func(ctx context.Context, limit int) ([]domain.Contact, error)
}

var _ ports.ContactRepository = (*ContactRepository)(nil)

// NewContactRepository creates a repository returning contacts.
func NewContactRepository(contacts ...domain.Contact) *ContactRepository {
	return &ContactRepository{contacts: contacts}
}

// FetchContacts returns the seeded contacts, honoring limit.
func (r *ContactRepository) FetchContacts(ctx context.Context, limit int) ([]domain.Contact, error) {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()

	if r.FetchContactsFn != nil {
		return r.FetchContactsFn(ctx, limit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Contact, len(r.contacts))
	copy(out, r.contacts)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// CallCount returns how many times FetchContacts ran.
func (r *ContactRepository) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Calls
}
