package repositories

import (
	"context"

	"rentdesk/internal/models"

	"github.com/google/uuid"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	GetByCode(ctx context.Context, code string) (*models.Branch, error)
	Update(ctx context.Context, branch *models.Branch) error
	List(ctx context.Context) ([]*models.Branch, error)
}

type branchRepo struct {
	db Database
}

func NewBranchRepo(db Database) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) Create(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, code, name, address, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (code) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, branch.ID, branch.Code, branch.Name, branch.Address, branch.Phone, branch.Status)
	return err
}

func (r *branchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch := &models.Branch{}
	query := `
		SELECT id, code, name, address, phone, status, created_at, updated_at
		FROM branches
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&branch.ID, &branch.Code, &branch.Name, &branch.Address, &branch.Phone, &branch.Status,
		&branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return branch, nil
}

func (r *branchRepo) GetByCode(ctx context.Context, code string) (*models.Branch, error) {
	branch := &models.Branch{}
	query := `
		SELECT id, code, name, address, phone, status, created_at, updated_at
		FROM branches
		WHERE code = $1
	`
	err := r.db.QueryRow(ctx, query, code).Scan(
		&branch.ID, &branch.Code, &branch.Name, &branch.Address, &branch.Phone, &branch.Status,
		&branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return branch, nil
}

func (r *branchRepo) Update(ctx context.Context, branch *models.Branch) error {
	query := `
		UPDATE branches
		SET code = $1, name = $2, address = $3, phone = $4, status = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, branch.Code, branch.Name, branch.Address, branch.Phone, branch.Status, branch.ID)
	return err
}

func (r *branchRepo) List(ctx context.Context) ([]*models.Branch, error) {
	query := `
		SELECT id, code, name, address, phone, status, created_at, updated_at
		FROM branches
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*models.Branch
	for rows.Next() {
		branch := &models.Branch{}
		err := rows.Scan(
			&branch.ID, &branch.Code, &branch.Name, &branch.Address, &branch.Phone, &branch.Status,
			&branch.CreatedAt, &branch.UpdatedAt)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, rows.Err()
}
