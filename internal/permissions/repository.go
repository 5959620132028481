package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hhportal/hhportal/internal/platform/db"
)

// Repository defines persistence operations for the permission store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Permission, error)
	GetByCode(ctx context.Context, code string) (*Permission, error)
	ListAll(ctx context.Context) ([]Permission, error)
	Insert(ctx context.Context, p *Permission) error
	Update(ctx context.Context, p *Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const permissionColumns = `id, name, code, resource_type, resource_path, parent_id, created_at, updated_at`

func scanPermission(row pgx.Row) (*Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Code, &p.ResourceType, &p.ResourcePath, &p.ParentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Permission, error) {
	return scanPermission(r.db.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Permission, error) {
	return scanPermission(r.db.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE code = $1`, code))
}

// ListAll returns every permission ordered by (created_at, id) so forest
// construction is deterministic across calls.
func (r *repository) ListAll(ctx context.Context) ([]Permission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.ResourceType, &p.ResourcePath, &p.ParentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *repository) Insert(ctx context.Context, p *Permission) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO permissions (id, name, code, resource_type, resource_path, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Code, p.ResourceType, p.ResourcePath, p.ParentID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *repository) Update(ctx context.Context, p *Permission) error {
	err := r.db.QueryRow(ctx, `
		UPDATE permissions
		SET name = $2, code = $3, resource_type = $4, resource_path = $5, parent_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.Code, p.ResourceType, p.ResourcePath, p.ParentID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return mapUniqueViolation(err)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE parent_id = $1)`, id).Scan(&exists)
	return exists, err
}

// mapUniqueViolation converts the unique-index race on code into the domain
// error; the service checks first but two concurrent creates can both pass it.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}
