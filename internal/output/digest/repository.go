package digest

import (
	"context"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
	db "github.com/lueurxax/job-digest-notifier/internal/storage"
)

// Repository defines the storage operations required by the Orchestrator.
type Repository interface {
	ports.JobRepository
	ports.ContactRepository
}

var _ Repository = (*db.DB)(nil)

// Channel is a delivery channel the orchestrator fans out to.
type Channel interface {
	Name() domain.Channel
	// Addresses reports whether the channel would message contact.
	Addresses(contact domain.Contact) bool
	SendDigests(ctx context.Context, req delivery.Request) (domain.ChannelSummary, error)
}
