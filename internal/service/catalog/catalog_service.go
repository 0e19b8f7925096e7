package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/logging"
)

type CatalogUseCase interface {
	List(ctx context.Context) ([]domain.CatalogEntry, error)
	Invalidate(ctx context.Context)
}

// Reader is the slice of the tier repository the catalog needs.
type Reader interface {
	ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// Cache holds the last catalog projection. A nil slice from GetTiers is a miss.
type Cache interface {
	GetTiers(ctx context.Context) ([]domain.CatalogEntry, error)
	SetTiers(ctx context.Context, entries []domain.CatalogEntry) error
	InvalidateTiers(ctx context.Context) error
}

type CatalogService struct {
	repo  Reader
	cache Cache
}

// NewCatalogService accepts a nil cache, in which case every call reads the store.
func NewCatalogService(repo Reader, cache Cache) *CatalogService {
	return &CatalogService{repo: repo, cache: cache}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	log := logging.FromContext(ctx)

	if s.cache != nil {
		cached, err := s.cache.GetTiers(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			log.WithError(err).Warn("catalog cache read failed")
		}
	}

	entries, err := s.repo.ListCatalog(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTiers(ctx, entries); err != nil {
			log.WithError(err).Warn("catalog cache write failed")
		}
	}
	return entries, nil
}

// Invalidate drops the cached projection. Errors are logged, never returned.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTiers(ctx); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("catalog cache invalidate failed")
	}
}

var _ CatalogUseCase = (*CatalogService)(nil)
