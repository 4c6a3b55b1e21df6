package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labtrack/labtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== TestCatalogEntry Repository ===========

type testRepoPG struct{ pool *pgxpool.Pool }

func NewTestRepoPG(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

const testCols = `id, code, name, area, active, created_at, updated_at`

func (r *testRepoPG) scanTest(row pgx.Row) (*TestCatalogEntry, error) {
	var t TestCatalogEntry
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.AreaName, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *testRepoPG) Create(ctx context.Context, t *TestCatalogEntry) error {
	t.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO test_catalog (id, code, name, area, active)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Code, t.Name, t.AreaName, t.Active)
	return err
}

func (r *testRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestCatalogEntry, error) {
	return r.scanTest(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+testCols+` FROM test_catalog WHERE id = $1`, id))
}

func (r *testRepoPG) GetByCode(ctx context.Context, code string) (*TestCatalogEntry, error) {
	return r.scanTest(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+testCols+` FROM test_catalog WHERE code = $1`, code))
}

func (r *testRepoPG) List(ctx context.Context, limit, offset int) ([]*TestCatalogEntry, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM test_catalog WHERE active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+testCols+` FROM test_catalog WHERE active ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TestCatalogEntry
	for rows.Next() {
		t, err := r.scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// =========== Method Repository ===========

type methodRepoPG struct{ pool *pgxpool.Pool }

func NewMethodRepoPG(pool *pgxpool.Pool) MethodRepository {
	return &methodRepoPG{pool: pool}
}

const methodCols = `id, name, created_at, updated_at`

func (r *methodRepoPG) scanMethod(row pgx.Row) (*Method, error) {
	var m Method
	err := row.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *methodRepoPG) Create(ctx context.Context, m *Method) error {
	m.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `INSERT INTO method (id, name) VALUES ($1,$2)`, m.ID, m.Name)
	return err
}

func (r *methodRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Method, error) {
	return r.scanMethod(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+methodCols+` FROM method WHERE id = $1`, id))
}

func (r *methodRepoPG) List(ctx context.Context) ([]*Method, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+methodCols+` FROM method ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Method
	for rows.Next() {
		m, err := r.scanMethod(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// =========== Analyte Repository ===========

type analyteRepoPG struct{ pool *pgxpool.Pool }

func NewAnalyteRepoPG(pool *pgxpool.Pool) AnalyteRepository {
	return &analyteRepoPG{pool: pool}
}

const analyteCols = `id, name, category, created_at, updated_at`

func (r *analyteRepoPG) scanAnalyte(row pgx.Row) (*Analyte, error) {
	var a Analyte
	err := row.Scan(&a.ID, &a.Name, &a.Category, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *analyteRepoPG) Create(ctx context.Context, a *Analyte) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `INSERT INTO analyte (id, name, category) VALUES ($1,$2,$3)`,
		a.ID, a.Name, a.Category)
	return err
}

func (r *analyteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Analyte, error) {
	return r.scanAnalyte(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+analyteCols+` FROM analyte WHERE id = $1`, id))
}

func (r *analyteRepoPG) List(ctx context.Context) ([]*Analyte, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+analyteCols+` FROM analyte ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Analyte
	for rows.Next() {
		a, err := r.scanAnalyte(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *analyteRepoPG) ListByCategory(ctx context.Context, category string) ([]*Analyte, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+analyteCols+` FROM analyte WHERE category = $1 ORDER BY name`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Analyte
	for rows.Next() {
		a, err := r.scanAnalyte(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
