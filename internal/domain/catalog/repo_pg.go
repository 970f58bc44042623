package catalog

import (
	"context"

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

const typeCols = `name, display_name, is_video_allowed, is_video_only, created_at, updated_at`

func scanType(row pgx.Row) (*DocumentType, error) {
	var dt DocumentType
	err := row.Scan(&dt.Name, &dt.DisplayName, &dt.VideoAllowed, &dt.VideoOnly,
		&dt.CreatedAt, &dt.UpdatedAt)
	return &dt, err
}

func (r *repoPG) ListTypes(ctx context.Context) ([]*DocumentType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+typeCols+` FROM document_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*DocumentType
	for rows.Next() {
		dt, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, dt)
	}
	return items, rows.Err()
}

func (r *repoPG) GetType(ctx context.Context, name string) (*DocumentType, error) {
	return scanType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+typeCols+` FROM document_types WHERE name = $1`, name))
}

func (r *repoPG) UpsertType(ctx context.Context, dt *DocumentType) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO document_types (name, display_name, is_video_allowed, is_video_only)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			display_name = $2, is_video_allowed = $3, is_video_only = $4, updated_at = NOW()`,
		dt.Name, dt.DisplayName, dt.VideoAllowed, dt.VideoOnly)
	return err
}

func (r *repoPG) DeleteType(ctx context.Context, name string) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM hospital_type_optional_docs WHERE doc_name = $1`, name); err != nil {
		return err
	}
	_, err := c.Exec(ctx, `DELETE FROM document_types WHERE name = $1`, name)
	return err
}

func (r *repoPG) OptionalDocs(ctx context.Context, hospitalType string) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT doc_name FROM hospital_type_optional_docs WHERE hospital_type = $1 ORDER BY doc_name`,
		hospitalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *repoPG) SetOptionalDocs(ctx context.Context, hospitalType string, names []string) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx,
		`DELETE FROM hospital_type_optional_docs WHERE hospital_type = $1`, hospitalType); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := c.Exec(ctx, `
			INSERT INTO hospital_type_optional_docs (hospital_type, doc_name)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			hospitalType, name); err != nil {
			return err
		}
	}
	return nil
}
