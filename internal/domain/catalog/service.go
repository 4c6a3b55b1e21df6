package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/domain/findings"
	"github.com/labtrack/labtrack/internal/platform/db"
)

const lookupCacheTTL = 5 * time.Minute

// Service exposes the catalog reference data and assembles the lookup tables
// the findings encoder resolves identifiers against. Lookup reads go through
// an optional redis cache; a nil client disables caching.
type Service struct {
	tests    TestRepository
	methods  MethodRepository
	analytes AnalyteRepository
	cache    *redis.Client
	logger   zerolog.Logger
}

func NewService(tests TestRepository, methods MethodRepository, analytes AnalyteRepository, cache *redis.Client, logger zerolog.Logger) *Service {
	return &Service{
		tests:    tests,
		methods:  methods,
		analytes: analytes,
		cache:    cache,
		logger:   logger,
	}
}

func (s *Service) CreateTest(ctx context.Context, t *TestCatalogEntry) error {
	if t.Code == "" {
		return fmt.Errorf("code is required")
	}
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	t.Active = true
	return s.tests.Create(ctx, t)
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*TestCatalogEntry, error) {
	return s.tests.GetByID(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, limit, offset int) ([]*TestCatalogEntry, int, error) {
	return s.tests.List(ctx, limit, offset)
}

func (s *Service) CreateMethod(ctx context.Context, m *Method) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.methods.Create(ctx, m); err != nil {
		return err
	}
	s.invalidateLookups(ctx)
	return nil
}

func (s *Service) ListMethods(ctx context.Context) ([]*Method, error) {
	return s.methods.List(ctx)
}

func (s *Service) CreateAnalyte(ctx context.Context, a *Analyte) error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidCategory(a.Category) {
		return fmt.Errorf("category must be one of virus, bacteria, fungus, nematode")
	}
	if err := s.analytes.Create(ctx, a); err != nil {
		return err
	}
	s.invalidateLookups(ctx)
	return nil
}

func (s *Service) ListAnalytes(ctx context.Context, category string) ([]*Analyte, error) {
	if category != "" {
		if !ValidCategory(category) {
			return nil, fmt.Errorf("unknown analyte category %q", category)
		}
		return s.analytes.ListByCategory(ctx, category)
	}
	return s.analytes.List(ctx)
}

// Lookups assembles the full method and analyte resolution tables. Findings
// encoding must only happen against a complete table set, so this is the one
// entry point result writers use.
func (s *Service) Lookups(ctx context.Context) (findings.Lookups, error) {
	key := s.lookupCacheKey(ctx)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var lk findings.Lookups
			if err := json.Unmarshal(cached, &lk); err == nil {
				return lk, nil
			}
			// Corrupt cache entry; fall through to a fresh build.
		}
	}

	methods, err := s.methods.List(ctx)
	if err != nil {
		return findings.Lookups{}, fmt.Errorf("load methods: %w", err)
	}
	analytes, err := s.analytes.List(ctx)
	if err != nil {
		return findings.Lookups{}, fmt.Errorf("load analytes: %w", err)
	}

	lk := findings.Lookups{
		Methods:  make(map[string]string, len(methods)),
		Analytes: make(map[string]map[string]string),
	}
	for _, m := range methods {
		lk.Methods[m.ID.String()] = m.Name
	}
	for _, a := range analytes {
		byID, ok := lk.Analytes[a.Category]
		if !ok {
			byID = make(map[string]string)
			lk.Analytes[a.Category] = byID
		}
		byID[a.ID.String()] = a.Name
	}

	if s.cache != nil {
		if payload, err := json.Marshal(lk); err == nil {
			if err := s.cache.Set(ctx, key, payload, lookupCacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("lookup cache write failed")
			}
		}
	}

	return lk, nil
}

func (s *Service) lookupCacheKey(ctx context.Context) string {
	lab := db.LabFromContext(ctx)
	if lab == "" {
		lab = "default"
	}
	return "catalog:lookups:" + lab
}

func (s *Service) invalidateLookups(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.lookupCacheKey(ctx)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("lookup cache invalidation failed")
	}
}
