package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// Registrar writes symbol identity columns
type Registrar interface {
	ReconcileSymbols(ctx context.Context, listings []contracts.Listing) (contracts.ReconcileResult, error)
}

// RegistrySyncer keeps the stock table in line with the listed universe.
// Symbols are added or renamed, never deleted.
type RegistrySyncer struct {
	source contracts.UniverseSource
	store  Registrar
	logger *logger.Logger
}

// NewRegistrySyncer creates a registry synchronizer
func NewRegistrySyncer(source contracts.UniverseSource, store Registrar, log *logger.Logger) *RegistrySyncer {
	return &RegistrySyncer{source: source, store: store, logger: log.WithComponent("registry")}
}

// Sync discovers the universe as of asOf and reconciles it.
// Any discovery problem is returned wrapped in ErrDiscovery.
func (s *RegistrySyncer) Sync(ctx context.Context, asOf time.Time) (contracts.ReconcileResult, error) {
	listings, err := s.source.Discover(ctx, asOf)
	if err != nil {
		if !errors.Is(err, contracts.ErrDiscovery) {
			err = fmt.Errorf("%w: %w", contracts.ErrDiscovery, err)
		}
		return contracts.ReconcileResult{}, err
	}
	if len(listings) == 0 {
		return contracts.ReconcileResult{}, fmt.Errorf("%w: no securities listed as of %s", contracts.ErrDiscovery, asOf.Format("2006-01-02"))
	}

	result, err := s.store.ReconcileSymbols(ctx, listings)
	if err != nil {
		return contracts.ReconcileResult{}, err
	}
	return result, nil
}
