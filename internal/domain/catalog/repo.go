package catalog

import (
	"context"

	"github.com/google/uuid"
)

type TestRepository interface {
	Create(ctx context.Context, t *TestCatalogEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestCatalogEntry, error)
	GetByCode(ctx context.Context, code string) (*TestCatalogEntry, error)
	List(ctx context.Context, limit, offset int) ([]*TestCatalogEntry, int, error)
}

type MethodRepository interface {
	Create(ctx context.Context, m *Method) error
	GetByID(ctx context.Context, id uuid.UUID) (*Method, error)
	List(ctx context.Context) ([]*Method, error)
}

type AnalyteRepository interface {
	Create(ctx context.Context, a *Analyte) error
	GetByID(ctx context.Context, id uuid.UUID) (*Analyte, error)
	List(ctx context.Context) ([]*Analyte, error)
	ListByCategory(ctx context.Context, category string) ([]*Analyte, error)
}
