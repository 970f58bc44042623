package healthcareservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contrack/contrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const svcCols = `id, name, active, created_at, updated_at`

func scanService(row pgx.Row) (*HealthcareService, error) {
	var s HealthcareService
	err := row.Scan(&s.ID, &s.Name, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *HealthcareService) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO services (name, active)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		s.Name, s.Active).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthcareService, error) {
	return scanService(r.conn(ctx).QueryRow(ctx,
		`SELECT `+svcCols+` FROM services WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *HealthcareService) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE services SET name = $2, active = $3, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Active)
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool) ([]*HealthcareService, error) {
	q := `SELECT ` + svcCols + ` FROM services`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HealthcareService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
