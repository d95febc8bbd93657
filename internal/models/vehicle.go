package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle availability states.
const (
	VehicleAvailable   = "available"
	VehicleRented      = "rented"
	VehicleMaintenance = "maintenance"
	VehicleRetired     = "retired"
)

type Vehicle struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Plate        string    `json:"plate" db:"plate"`
	Make         string    `json:"make" db:"make"`
	Model        string    `json:"model" db:"model"`
	Year         int       `json:"year" db:"year"`
	Class        string    `json:"class" db:"class"`
	BranchCode   string    `json:"branch_code" db:"branch_code"`
	Status       string    `json:"status" db:"status"`
	Odometer     int       `json:"odometer" db:"odometer"`
	DailyRate    float64   `json:"daily_rate" db:"daily_rate"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
