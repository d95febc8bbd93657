package repositories

import (
	"context"
	"fmt"
	"time"

	"rentdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationSearchFilter mirrors the lookup table's filter bar: date range,
// status, pickup location, plus a free-text customer search.
type ReservationSearchFilter struct {
	Query        string
	Status       string
	PickupBranch string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	GetByConfirmationNo(ctx context.Context, confirmationNo string) (*models.Reservation, error)
	Update(ctx context.Context, reservation *models.Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Reservation, error)
	AdvancedSearch(ctx context.Context, filter *ReservationSearchFilter) ([]*models.Reservation, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Reservation, error)
}

type reservationRepo struct {
	db Database
}

func NewReservationRepo(db Database) ReservationRepository {
	return &reservationRepo{db: db}
}

const reservationColumns = `id, confirmation_no, customer_name, customer_email, customer_phone, vehicle_id, pickup_branch, return_branch, status, rent_date, return_date, daily_rate, agreement_object, notes, created_at, updated_at`

func (r *reservationRepo) Create(ctx context.Context, reservation *models.Reservation) error {
	query := `
		INSERT INTO reservations (id, confirmation_no, customer_name, customer_email, customer_phone, vehicle_id, pickup_branch, return_branch, status, rent_date, return_date, daily_rate, agreement_object, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		reservation.ID, reservation.ConfirmationNo, reservation.CustomerName, reservation.CustomerEmail, reservation.CustomerPhone,
		reservation.VehicleID, reservation.PickupBranch, reservation.ReturnBranch, reservation.Status,
		reservation.RentDate, reservation.ReturnDate, reservation.DailyRate, reservation.AgreementObject, reservation.Notes)
	return err
}

func (r *reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *reservationRepo) GetByConfirmationNo(ctx context.Context, confirmationNo string) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE confirmation_no = $1`, reservationColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, confirmationNo))
}

func (r *reservationRepo) Update(ctx context.Context, reservation *models.Reservation) error {
	query := `
		UPDATE reservations
		SET customer_name = $1, customer_email = $2, customer_phone = $3, vehicle_id = $4, pickup_branch = $5, return_branch = $6, status = $7, rent_date = $8, return_date = $9, daily_rate = $10, agreement_object = $11, notes = $12, updated_at = NOW()
		WHERE id = $13
	`
	_, err := r.db.Exec(ctx, query,
		reservation.CustomerName, reservation.CustomerEmail, reservation.CustomerPhone,
		reservation.VehicleID, reservation.PickupBranch, reservation.ReturnBranch, reservation.Status,
		reservation.RentDate, reservation.ReturnDate, reservation.DailyRate, reservation.AgreementObject, reservation.Notes,
		reservation.ID)
	return err
}

func (r *reservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reservations WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *reservationRepo) List(ctx context.Context, limit, offset int) ([]*models.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		ORDER BY rent_date DESC NULLS LAST
		LIMIT $1 OFFSET $2
	`, reservationColumns)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// AdvancedSearch performs the filtered lookup query. Filters are combined
// with AND; absent filters add no condition.
func (r *reservationRepo) AdvancedSearch(ctx context.Context, filter *ReservationSearchFilter) ([]*models.Reservation, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	queryBase := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE 1=1
	`, reservationColumns)
	args := []interface{}{}
	conditionCount := 0

	if filter.Query != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND (customer_name ILIKE $%d OR customer_email ILIKE $%d OR customer_phone ILIKE $%d)`,
			conditionCount, conditionCount, conditionCount)
		args = append(args, "%"+filter.Query+"%")
	}

	if filter.Status != "" && filter.Status != "All" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, conditionCount)
		args = append(args, filter.Status)
	}

	if filter.PickupBranch != "" && filter.PickupBranch != "All" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND pickup_branch = $%d`, conditionCount)
		args = append(args, filter.PickupBranch)
	}

	// Range bounds compare calendar dates, inclusive on both ends.
	if filter.StartDate != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND rent_date::date >= $%d::date`, conditionCount)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND rent_date::date <= $%d::date`, conditionCount)
		args = append(args, *filter.EndDate)
	}

	queryBase += fmt.Sprintf(` ORDER BY rent_date DESC NULLS LAST LIMIT $%d OFFSET $%d`, conditionCount+1, conditionCount+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListOverdue returns rented reservations whose return date has passed.
func (r *reservationRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE status = $1 AND return_date IS NOT NULL AND return_date < $2
		ORDER BY return_date ASC
	`, reservationColumns)
	rows, err := r.db.Query(ctx, query, models.ReservationRented, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *reservationRepo) scanOne(row pgx.Row) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	err := row.Scan(
		&reservation.ID, &reservation.ConfirmationNo, &reservation.CustomerName, &reservation.CustomerEmail, &reservation.CustomerPhone,
		&reservation.VehicleID, &reservation.PickupBranch, &reservation.ReturnBranch, &reservation.Status,
		&reservation.RentDate, &reservation.ReturnDate, &reservation.DailyRate, &reservation.AgreementObject, &reservation.Notes,
		&reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *reservationRepo) scanMany(rows pgx.Rows) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		reservation, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
