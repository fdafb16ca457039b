// Package integrations holds the seams for third-party services the
// product calls out to: applicant screening and lease e-signing. The
// bundled implementations are inert; real providers plug in behind the
// same interfaces.
package integrations

import (
	"context"
	"time"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// ScreeningProvider runs a background check on a lead.
type ScreeningProvider interface {
	// RequestScreening starts a check and returns the initial pending
	// record. Completion arrives out of band.
	RequestScreening(ctx context.Context, lead *repository.Lead) (*repository.Screening, error)
}

// ESignProvider sends a lease document out for signature.
type ESignProvider interface {
	// RequestSignature returns the provider's envelope id.
	RequestSignature(ctx context.Context, lease *repository.Lease, documentKey string) (string, error)
}

// ManualScreening is the default provider: it records a pending
// screening and leaves resolution to staff.
type ManualScreening struct{}

func (ManualScreening) RequestScreening(_ context.Context, lead *repository.Lead) (*repository.Screening, error) {
	logger.L().Info("screening requested, pending manual review", logger.LeadID(lead.ID))
	return &repository.Screening{
		Status:      repository.ScreeningPending,
		RequestedAt: time.Now().UTC(),
	}, nil
}

// NoESign rejects signature requests until a provider is configured.
type NoESign struct{}

func (NoESign) RequestSignature(_ context.Context, lease *repository.Lease, _ string) (string, error) {
	logger.L().Warn("e-sign requested but no provider configured", logger.LeaseID(lease.ID))
	return "", repository.ErrInvalidInput
}

var (
	_ ScreeningProvider = ManualScreening{}
	_ ESignProvider     = NoESign{}
)
