package results

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labtrack/labtrack/internal/domain/findings"
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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const resultCols = `id, sample_id, sample_test_id, status, classification, severity, confidence,
	diagnosis, conclusion, recommendations, findings,
	performed_by, performed_at, validated_by, validated_at,
	version_id, created_at, updated_at`

func scanResult(row pgx.Row) (*Result, error) {
	var r Result
	err := row.Scan(&r.ID, &r.SampleID, &r.SampleTestID, &r.Status, &r.Classification, &r.Severity,
		&r.Confidence, &r.Diagnosis, &r.Conclusion, &r.Recommendations, &r.Findings,
		&r.PerformedBy, &r.PerformedAt, &r.ValidatedBy, &r.ValidatedAt,
		&r.VersionID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	res.VersionID = 1
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO result (id, sample_id, sample_test_id, status, classification, severity, confidence,
			diagnosis, conclusion, recommendations, findings,
			performed_by, performed_at, validated_by, validated_at, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		res.ID, res.SampleID, res.SampleTestID, res.Status, res.Classification, res.Severity, res.Confidence,
		res.Diagnosis, res.Conclusion, res.Recommendations, res.Findings,
		res.PerformedBy, res.PerformedAt, res.ValidatedBy, res.ValidatedAt, res.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+resultCols+` FROM result WHERE id = $1`, id))
}

func (r *repoPG) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Result, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+resultCols+` FROM result WHERE sample_id = $1 ORDER BY created_at`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, res *Result, expectedVersion int) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE result SET
			status = $1, classification = $2, severity = $3, confidence = $4,
			diagnosis = $5, conclusion = $6, recommendations = $7, findings = $8,
			performed_by = $9, performed_at = $10, validated_by = $11, validated_at = $12,
			version_id = version_id + 1, updated_at = now()
		WHERE id = $13 AND version_id = $14`,
		res.Status, res.Classification, res.Severity, res.Confidence,
		res.Diagnosis, res.Conclusion, res.Recommendations, res.Findings,
		res.PerformedBy, res.PerformedAt, res.ValidatedBy, res.ValidatedAt,
		res.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	res.VersionID = expectedVersion + 1
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM result WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) AreaForSampleTest(ctx context.Context, sampleTestID uuid.UUID) (findings.Area, error) {
	var raw string
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT tc.area FROM sample_test st
		JOIN test_catalog tc ON tc.id = st.test_id
		WHERE st.id = $1`, sampleTestID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return findings.AreaUnknown, ErrNotFound
	}
	if err != nil {
		return findings.AreaUnknown, err
	}
	return findings.ClassifyArea(raw), nil
}
