package samples

import (
	"context"
	"errors"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) begin(ctx context.Context) (pgx.Tx, error) {
	if c := db.ConnFromContext(ctx); c != nil {
		return c.Begin(ctx)
	}
	return r.pool.Begin(ctx)
}

const sampleCols = `id, code, client_id, project_id, received_date, sla_type, due_date, sla_status, status,
	species, variety, rootstock, planting_year, previous_crop, next_crop, fallow, region, locality,
	taken_by, sampling_method, suspected_pathogen, delivery_method,
	client_notes, reception_notes, sampling_observations, reception_observations,
	version_id, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.Code, &s.ClientID, &s.ProjectID, &s.ReceivedDate, &s.SLAType, &s.DueDate,
		&s.SLAStatus, &s.Status,
		&s.Species, &s.Variety, &s.Rootstock, &s.PlantingYear, &s.PreviousCrop, &s.NextCrop, &s.Fallow,
		&s.Region, &s.Locality, &s.TakenBy, &s.SamplingMethod, &s.SuspectedPathogen, &s.DeliveryMethod,
		&s.ClientNotes, &s.ReceptionNotes, &s.SamplingObservations, &s.ReceptionObservations,
		&s.VersionID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Sample, tests []*SampleTest) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	s.ID = uuid.New()
	s.VersionID = 1
	_, err = tx.Exec(ctx, `
		INSERT INTO sample (id, code, client_id, project_id, received_date, sla_type, due_date, sla_status, status,
			species, variety, rootstock, planting_year, previous_crop, next_crop, fallow, region, locality,
			taken_by, sampling_method, suspected_pathogen, delivery_method,
			client_notes, reception_notes, sampling_observations, reception_observations, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		s.ID, s.Code, s.ClientID, s.ProjectID, s.ReceivedDate, s.SLAType, s.DueDate, s.SLAStatus, s.Status,
		s.Species, s.Variety, s.Rootstock, s.PlantingYear, s.PreviousCrop, s.NextCrop, s.Fallow,
		s.Region, s.Locality, s.TakenBy, s.SamplingMethod, s.SuspectedPathogen, s.DeliveryMethod,
		s.ClientNotes, s.ReceptionNotes, s.SamplingObservations, s.ReceptionObservations, s.VersionID)
	if err != nil {
		return err
	}

	for _, st := range tests {
		st.ID = uuid.New()
		st.SampleID = s.ID
		_, err = tx.Exec(ctx, `INSERT INTO sample_test (id, sample_id, test_id, method_id) VALUES ($1,$2,$3,$4)`,
			st.ID, st.SampleID, st.TestID, st.MethodID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return scanSample(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM sample`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+sampleCols+` FROM sample ORDER BY received_date DESC, code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

const validatedExistsQuery = `SELECT EXISTS (SELECT 1 FROM result WHERE sample_id = $1 AND status = 'validated')`

func (r *repoPG) HasValidatedResults(ctx context.Context, sampleID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, validatedExistsQuery, sampleID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, s *Sample, expectedVersion int, transition *StatusTransition, recheckUnlocked bool) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The edit was authorized against "no validated results"; re-checking
	// inside the transaction closes the window where a concurrent
	// validation would let a locked-field write slip through.
	if recheckUnlocked {
		var exists bool
		if err := tx.QueryRow(ctx, validatedExistsQuery, s.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE sample SET
			code = $1, client_id = $2, project_id = $3, received_date = $4, sla_type = $5,
			due_date = $6, sla_status = $7, status = $8,
			species = $9, variety = $10, rootstock = $11, planting_year = $12, previous_crop = $13,
			next_crop = $14, fallow = $15, region = $16, locality = $17, taken_by = $18,
			sampling_method = $19, suspected_pathogen = $20, delivery_method = $21,
			client_notes = $22, reception_notes = $23, sampling_observations = $24, reception_observations = $25,
			version_id = version_id + 1, updated_at = now()
		WHERE id = $26 AND version_id = $27`,
		s.Code, s.ClientID, s.ProjectID, s.ReceivedDate, s.SLAType,
		s.DueDate, s.SLAStatus, s.Status,
		s.Species, s.Variety, s.Rootstock, s.PlantingYear, s.PreviousCrop,
		s.NextCrop, s.Fallow, s.Region, s.Locality, s.TakenBy,
		s.SamplingMethod, s.SuspectedPathogen, s.DeliveryMethod,
		s.ClientNotes, s.ReceptionNotes, s.SamplingObservations, s.ReceptionObservations,
		s.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	if transition != nil {
		transition.ID = uuid.New()
		transition.SampleID = s.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO status_transition (id, sample_id, from_status, to_status, by_user, reason)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			transition.ID, transition.SampleID, transition.FromStatus, transition.ToStatus,
			transition.ByUser, transition.Reason)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.VersionID = expectedVersion + 1
	return nil
}

// purgeStatements delete dependents child-before-parent so foreign keys hold
// at every step. Any failure aborts the whole transaction.
var purgeStatements = []string{
	`DELETE FROM unit_result WHERE sample_unit_id IN (SELECT id FROM sample_unit WHERE sample_id = $1)`,
	`DELETE FROM sample_unit WHERE sample_id = $1`,
	`DELETE FROM result WHERE sample_id = $1`,
	`DELETE FROM sample_test WHERE sample_id = $1`,
	`DELETE FROM status_transition WHERE sample_id = $1`,
	`DELETE FROM applied_interpretation WHERE sample_id = $1`,
	`DELETE FROM sample_file WHERE sample_id = $1`,
	`DELETE FROM report WHERE sample_id = $1`,
}

func (r *repoPG) Purge(ctx context.Context, id uuid.UUID) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range purgeStatements {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM sample WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *repoPG) ListTests(ctx context.Context, sampleID uuid.UUID) ([]*SampleTest, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, sample_id, test_id, method_id, created_at
		FROM sample_test WHERE sample_id = $1 ORDER BY created_at`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SampleTest
	for rows.Next() {
		var st SampleTest
		if err := rows.Scan(&st.ID, &st.SampleID, &st.TestID, &st.MethodID, &st.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &st)
	}
	return items, rows.Err()
}

func (r *repoPG) ListTransitions(ctx context.Context, sampleID uuid.UUID) ([]*StatusTransition, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, sample_id, from_status, to_status, by_user, reason, created_at
		FROM status_transition WHERE sample_id = $1 ORDER BY created_at`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StatusTransition
	for rows.Next() {
		var tr StatusTransition
		if err := rows.Scan(&tr.ID, &tr.SampleID, &tr.FromStatus, &tr.ToStatus, &tr.ByUser, &tr.Reason, &tr.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &tr)
	}
	return items, rows.Err()
}
