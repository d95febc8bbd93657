package repositories

import (
	"context"

	"rentdesk/internal/models"

	"github.com/google/uuid"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error)
	ListAvailable(ctx context.Context, branchCode, class string) ([]*models.Vehicle, error)
}

type vehicleRepo struct {
	db Database
}

func NewVehicleRepo(db Database) VehicleRepository {
	return &vehicleRepo{db: db}
}

func (r *vehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate, make, model, year, class, branch_code, status, odometer, daily_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		vehicle.ID, vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Year,
		vehicle.Class, vehicle.BranchCode, vehicle.Status, vehicle.Odometer, vehicle.DailyRate)
	return err
}

func (r *vehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `
		SELECT id, plate, make, model, year, class, branch_code, status, odometer, daily_rate, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID, &vehicle.Plate, &vehicle.Make, &vehicle.Model, &vehicle.Year,
		&vehicle.Class, &vehicle.BranchCode, &vehicle.Status, &vehicle.Odometer, &vehicle.DailyRate,
		&vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (r *vehicleRepo) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `
		SELECT id, plate, make, model, year, class, branch_code, status, odometer, daily_rate, created_at, updated_at
		FROM vehicles
		WHERE plate = $1
	`
	err := r.db.QueryRow(ctx, query, plate).Scan(
		&vehicle.ID, &vehicle.Plate, &vehicle.Make, &vehicle.Model, &vehicle.Year,
		&vehicle.Class, &vehicle.BranchCode, &vehicle.Status, &vehicle.Odometer, &vehicle.DailyRate,
		&vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (r *vehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate = $1, make = $2, model = $3, year = $4, class = $5, branch_code = $6, status = $7, odometer = $8, daily_rate = $9, updated_at = NOW()
		WHERE id = $10
	`
	_, err := r.db.Exec(ctx, query,
		vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Year, vehicle.Class,
		vehicle.BranchCode, vehicle.Status, vehicle.Odometer, vehicle.DailyRate, vehicle.ID)
	return err
}

func (r *vehicleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *vehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM vehicles WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *vehicleRepo) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	query := `
		SELECT id, plate, make, model, year, class, branch_code, status, odometer, daily_rate, created_at, updated_at
		FROM vehicles
		ORDER BY plate
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		vehicle := &models.Vehicle{}
		err := rows.Scan(
			&vehicle.ID, &vehicle.Plate, &vehicle.Make, &vehicle.Model, &vehicle.Year,
			&vehicle.Class, &vehicle.BranchCode, &vehicle.Status, &vehicle.Odometer, &vehicle.DailyRate,
			&vehicle.CreatedAt, &vehicle.UpdatedAt)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// ListAvailable returns rentable vehicles at a branch, optionally narrowed
// by vehicle class.
func (r *vehicleRepo) ListAvailable(ctx context.Context, branchCode, class string) ([]*models.Vehicle, error) {
	query := `
		SELECT id, plate, make, model, year, class, branch_code, status, odometer, daily_rate, created_at, updated_at
		FROM vehicles
		WHERE status = $1 AND branch_code = $2 AND ($3 = '' OR class = $3)
		ORDER BY daily_rate
	`
	rows, err := r.db.Query(ctx, query, models.VehicleAvailable, branchCode, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		vehicle := &models.Vehicle{}
		err := rows.Scan(
			&vehicle.ID, &vehicle.Plate, &vehicle.Make, &vehicle.Model, &vehicle.Year,
			&vehicle.Class, &vehicle.BranchCode, &vehicle.Status, &vehicle.Odometer, &vehicle.DailyRate,
			&vehicle.CreatedAt, &vehicle.UpdatedAt)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}
