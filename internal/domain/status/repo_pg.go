package status

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

// Behavior columns come from a LEFT JOIN so a status without a settings row
// reads as all-defaults instead of erroring.
const settingCols = `s.name, s.display_order,
	COALESCE(b.prevents_new_request, FALSE),
	COALESCE(b.blocks_service_for_days, 0),
	COALESCE(b.is_final_state, FALSE),
	s.created_at, s.updated_at`

const settingFrom = ` FROM request_statuses s
	LEFT JOIN status_settings b ON b.status_name = s.name`

func scanSetting(row pgx.Row) (*Setting, error) {
	var s Setting
	err := row.Scan(&s.Name, &s.DisplayOrder,
		&s.PreventsNewRequest, &s.BlocksServiceForDays, &s.IsFinalState,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) List(ctx context.Context) ([]*Setting, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+settingCols+settingFrom+` ORDER BY s.display_order, s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, name string) (*Setting, error) {
	return scanSetting(r.conn(ctx).QueryRow(ctx,
		`SELECT `+settingCols+settingFrom+` WHERE s.name = $1`, name))
}

func (r *repoPG) Upsert(ctx context.Context, s *Setting) error {
	c := r.conn(ctx)
	_, err := c.Exec(ctx, `
		INSERT INTO request_statuses (name, display_order)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET display_order = $2, updated_at = NOW()`,
		s.Name, s.DisplayOrder)
	if err != nil {
		return err
	}
	_, err = c.Exec(ctx, `
		INSERT INTO status_settings (status_name, prevents_new_request, blocks_service_for_days, is_final_state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (status_name) DO UPDATE SET
			prevents_new_request = $2, blocks_service_for_days = $3, is_final_state = $4`,
		s.Name, s.PreventsNewRequest, s.BlocksServiceForDays, s.IsFinalState)
	return err
}

func (r *repoPG) Delete(ctx context.Context, name string) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM status_settings WHERE status_name = $1`, name); err != nil {
		return err
	}
	_, err := c.Exec(ctx, `DELETE FROM request_statuses WHERE name = $1`, name)
	return err
}
