package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses as they move through the rental lifecycle.
const (
	ReservationPending   = "Pending"
	ReservationConfirmed = "Confirmed"
	ReservationRented    = "Rented"
	ReservationReturned  = "Returned"
	ReservationCancelled = "Cancelled"
)

type Reservation struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ConfirmationNo  string     `json:"confirmation_no" db:"confirmation_no"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	CustomerEmail   string     `json:"customer_email" db:"customer_email"`
	CustomerPhone   string     `json:"customer_phone" db:"customer_phone"`
	VehicleID       *uuid.UUID `json:"vehicle_id" db:"vehicle_id"`
	PickupBranch    string     `json:"pickup_branch" db:"pickup_branch"`
	ReturnBranch    string     `json:"return_branch" db:"return_branch"`
	Status          string     `json:"status" db:"status"`
	RentDate        *time.Time `json:"rent_date" db:"rent_date"`
	ReturnDate      *time.Time `json:"return_date" db:"return_date"`
	DailyRate       float64    `json:"daily_rate" db:"daily_rate"`
	AgreementObject *string    `json:"agreement_object" db:"agreement_object"`
	Notes           *string    `json:"notes" db:"notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// FilterDate reports the date used by range filters. ok is false when the
// reservation has no rent date yet, which makes it fail any active range.
func (r *Reservation) FilterDate() (time.Time, bool) {
	if r.RentDate == nil {
		return time.Time{}, false
	}
	return *r.RentDate, true
}

func (r *Reservation) FilterStatus() string { return r.Status }

func (r *Reservation) FilterLocation() string { return r.PickupBranch }

// SearchFields lists the free-text searchable fields for the lookup table.
func (r *Reservation) SearchFields() []string {
	return []string{r.CustomerName, r.CustomerEmail, r.CustomerPhone}
}
