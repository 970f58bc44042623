package request

import (
	"context"
	"time"

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

const reqCols = `id, hospital_id, service_id, status, age_category,
	created_at, updated_at, closed_at, deleted_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.HospitalID, &req.ServiceID, &req.Status,
		&req.AgeCategory, &req.CreatedAt, &req.UpdatedAt, &req.ClosedAt, &req.DeletedAt)
	return &req, err
}

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO requests (hospital_id, service_id, status, age_category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		req.HospitalID, req.ServiceID, req.Status, req.AgeCategory,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reqCols+` FROM requests WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, req *Request) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE requests
		SET status = $2, age_category = $3, updated_at = $4, closed_at = $5
		WHERE id = $1`,
		req.ID, req.Status, req.AgeCategory, req.UpdatedAt, req.ClosedAt)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE requests SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, at)
	return err
}

func (r *repoPG) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Request, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR hospital_id = $1)
		AND ($2::uuid IS NULL OR service_id = $2)
		AND ($3::text = '' OR status = $3)
		AND ($4::bool OR deleted_at IS NULL)`
	args := []interface{}{nilIfZero(f.HospitalID), nilIfZero(f.ServiceID), f.Status, f.IncludeDeleted}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reqCols+` FROM requests`+where+
			` ORDER BY created_at DESC LIMIT $5 OFFSET $6`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, req)
	}
	return items, total, rows.Err()
}

func nilIfZero(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func (r *repoPG) CountActiveByStatus(ctx context.Context, statusName string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM requests WHERE status = $1 AND deleted_at IS NULL`,
		statusName).Scan(&n)
	return n, err
}

func (r *repoPG) ExistsActiveWithStatus(ctx context.Context, hospitalID, serviceID uuid.UUID, statuses []string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE hospital_id = $1 AND service_id = $2
			  AND status = ANY($3) AND deleted_at IS NULL
		)`,
		hospitalID, serviceID, statuses).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListClosedWithStatus(ctx context.Context, hospitalID, serviceID uuid.UUID, statuses []string) ([]*Request, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reqCols+` FROM requests
		WHERE hospital_id = $1 AND service_id = $2
		  AND status = ANY($3) AND closed_at IS NOT NULL AND deleted_at IS NULL`,
		hospitalID, serviceID, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

// -- Documents --

type docRepoPG struct{ pool *pgxpool.Pool }

func NewDocumentRepoPG(pool *pgxpool.Pool) DocumentRepository { return &docRepoPG{pool: pool} }

func (r *docRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const docCols = `id, request_id, doc_type, display_name, required, required_overridden,
	satisfied, is_video_allowed, is_video_only, file_path, uploaded_at, admin_comment`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.RequestID, &d.DocType, &d.DisplayName, &d.Required,
		&d.RequiredOverridden, &d.Satisfied, &d.VideoAllowed, &d.VideoOnly,
		&d.FilePath, &d.UploadedAt, &d.AdminComment)
	return &d, err
}

func (r *docRepoPG) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docCols+` FROM documents WHERE request_id = $1 ORDER BY doc_type`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *docRepoPG) Get(ctx context.Context, requestID uuid.UUID, docType string) (*Document, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx,
		`SELECT `+docCols+` FROM documents WHERE request_id = $1 AND doc_type = $2`,
		requestID, docType))
}

func (r *docRepoPG) Create(ctx context.Context, d *Document) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO documents (request_id, doc_type, display_name, required,
			required_overridden, satisfied, is_video_allowed, is_video_only, admin_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.RequestID, d.DocType, d.DisplayName, d.Required, d.RequiredOverridden,
		d.Satisfied, d.VideoAllowed, d.VideoOnly, d.AdminComment,
	).Scan(&d.ID)
}

func (r *docRepoPG) Update(ctx context.Context, d *Document) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE documents
		SET display_name = $2, required = $3, required_overridden = $4,
			satisfied = $5, is_video_allowed = $6, is_video_only = $7,
			file_path = $8, uploaded_at = $9, admin_comment = $10
		WHERE id = $1`,
		d.ID, d.DisplayName, d.Required, d.RequiredOverridden, d.Satisfied,
		d.VideoAllowed, d.VideoOnly, d.FilePath, d.UploadedAt, d.AdminComment)
	return err
}

func (r *docRepoPG) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM documents WHERE request_id = $1`, requestID)
	return err
}

func (r *docRepoPG) ResyncRequired(ctx context.Context, hospitalType string, optionalDocs []string) error {
	// Full resync over the catalog: a name dropped from the optional set
	// flips back to required on in-flight requests. Admin overrides win.
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE documents d
		SET required = NOT (d.doc_type = ANY($2::text[]))
		FROM requests r, hospitals h
		WHERE d.request_id = r.id
		  AND r.hospital_id = h.id
		  AND h.type = $1
		  AND r.deleted_at IS NULL
		  AND NOT d.required_overridden`,
		hospitalType, optionalDocs)
	return err
}
