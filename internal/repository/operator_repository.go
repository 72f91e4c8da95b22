package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omrgrade/omr-backend/internal/model"
)

// OperatorRepository handles operator account data access.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// GetByID retrieves an operator by ID.
func (r *OperatorRepository) GetByID(ctx context.Context, id int) (*model.Operator, error) {
	o := &model.Operator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, created_at, updated_at
		 FROM operators WHERE id = $1`, id,
	).Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.Role, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByEmail retrieves an operator by their unique email.
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	o := &model.Operator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, created_at, updated_at
		 FROM operators WHERE email = $1`, email,
	).Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.Role, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts a new operator.
func (r *OperatorRepository) Create(ctx context.Context, o *model.Operator) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO operators (email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		o.Email, o.Name, o.PasswordHash, o.Role,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}
