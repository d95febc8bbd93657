package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/models"
	"rentdesk/internal/repositories"

	"github.com/google/uuid"
)

// RentalService drives the rental lifecycle: handing a vehicle over,
// taking it back, and swapping it mid-rental.
type RentalService interface {
	RentVehicle(ctx context.Context, confirmationNo string, vehicleID uuid.UUID) (*models.Reservation, error)
	ReturnVehicle(ctx context.Context, confirmationNo string, odometer int, notes string) (*ReturnSummary, error)
	ExchangeVehicle(ctx context.Context, confirmationNo string, newVehicleID uuid.UUID, reason string) (*models.Reservation, error)
}

// ReturnSummary is what the agent sees after closing out a rental.
type ReturnSummary struct {
	Reservation *models.Reservation `json:"reservation"`
	Days        int                 `json:"days"`
	TotalCharge float64             `json:"total_charge"`
}

type rentalService struct {
	reservationRepo repositories.ReservationRepository
	vehicleRepo     repositories.VehicleRepository
	eventBus        *bus.Bus
}

func NewRentalService(reservationRepo repositories.ReservationRepository, vehicleRepo repositories.VehicleRepository, eventBus *bus.Bus) RentalService {
	return &rentalService{
		reservationRepo: reservationRepo,
		vehicleRepo:     vehicleRepo,
		eventBus:        eventBus,
	}
}

// RentVehicle moves a confirmed reservation to Rented and assigns the
// vehicle. The vehicle must be available at the pickup branch.
func (s *rentalService) RentVehicle(ctx context.Context, confirmationNo string, vehicleID uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByConfirmationNo(ctx, confirmationNo)
	if err != nil {
		return nil, fmt.Errorf("reservation not found: %v", err)
	}
	if reservation.Status != models.ReservationConfirmed {
		return nil, fmt.Errorf("reservation %s is %s, expected %s", confirmationNo, reservation.Status, models.ReservationConfirmed)
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle not found: %v", err)
	}
	if vehicle.Status != models.VehicleAvailable {
		return nil, fmt.Errorf("vehicle %s is not available", vehicle.Plate)
	}
	if vehicle.BranchCode != reservation.PickupBranch {
		return nil, fmt.Errorf("vehicle %s is at %s, reservation picks up at %s", vehicle.Plate, vehicle.BranchCode, reservation.PickupBranch)
	}

	now := time.Now()
	reservation.VehicleID = &vehicle.ID
	reservation.Status = models.ReservationRented
	reservation.RentDate = &now
	reservation.DailyRate = vehicle.DailyRate
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %v", err)
	}
	if err := s.vehicleRepo.UpdateStatus(ctx, vehicle.ID, models.VehicleRented); err != nil {
		// Reservation already moved; surface but do not roll back silently.
		log.Printf("rental: reservation %s rented but vehicle %s status update failed: %v", confirmationNo, vehicle.Plate, err)
		return nil, fmt.Errorf("failed to update vehicle status: %v", err)
	}

	s.eventBus.Publish(bus.DataChanged{Entity: "reservations", ID: reservation.ID.String()})
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: vehicle.ID.String()})
	s.eventBus.Publish(bus.ShowNotification{
		Severity: bus.SeveritySuccess,
		Text:     fmt.Sprintf("Vehicle %s handed over for %s", vehicle.Plate, confirmationNo),
	})
	return reservation, nil
}

// ReturnVehicle closes out a rented reservation and releases the vehicle.
func (s *rentalService) ReturnVehicle(ctx context.Context, confirmationNo string, odometer int, notes string) (*ReturnSummary, error) {
	reservation, err := s.reservationRepo.GetByConfirmationNo(ctx, confirmationNo)
	if err != nil {
		return nil, fmt.Errorf("reservation not found: %v", err)
	}
	if reservation.Status != models.ReservationRented {
		return nil, fmt.Errorf("reservation %s is %s, expected %s", confirmationNo, reservation.Status, models.ReservationRented)
	}
	if reservation.VehicleID == nil {
		return nil, fmt.Errorf("reservation %s has no vehicle assigned", confirmationNo)
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, *reservation.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle not found: %v", err)
	}

	now := time.Now()
	reservation.Status = models.ReservationReturned
	reservation.ReturnDate = &now
	if notes != "" {
		reservation.Notes = &notes
	}
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %v", err)
	}

	vehicle.Status = models.VehicleAvailable
	vehicle.BranchCode = reservation.ReturnBranch
	if odometer > vehicle.Odometer {
		vehicle.Odometer = odometer
	}
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		log.Printf("rental: reservation %s returned but vehicle %s update failed: %v", confirmationNo, vehicle.Plate, err)
		return nil, fmt.Errorf("failed to update vehicle: %v", err)
	}

	days := rentalDays(reservation.RentDate, now)
	summary := &ReturnSummary{
		Reservation: reservation,
		Days:        days,
		TotalCharge: float64(days) * reservation.DailyRate,
	}

	s.eventBus.Publish(bus.DataChanged{Entity: "reservations", ID: reservation.ID.String()})
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: vehicle.ID.String()})
	s.eventBus.Publish(bus.ShowNotification{
		Severity: bus.SeveritySuccess,
		Text:     fmt.Sprintf("Vehicle %s returned for %s (%d days)", vehicle.Plate, confirmationNo, days),
	})
	return summary, nil
}

// ExchangeVehicle swaps the assigned vehicle mid-rental, typically after a
// breakdown. The replaced vehicle goes to maintenance rather than back on
// the lot.
func (s *rentalService) ExchangeVehicle(ctx context.Context, confirmationNo string, newVehicleID uuid.UUID, reason string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByConfirmationNo(ctx, confirmationNo)
	if err != nil {
		return nil, fmt.Errorf("reservation not found: %v", err)
	}
	if reservation.Status != models.ReservationRented {
		return nil, fmt.Errorf("reservation %s is %s, expected %s", confirmationNo, reservation.Status, models.ReservationRented)
	}
	if reservation.VehicleID == nil {
		return nil, fmt.Errorf("reservation %s has no vehicle assigned", confirmationNo)
	}
	oldVehicleID := *reservation.VehicleID
	if oldVehicleID == newVehicleID {
		return nil, fmt.Errorf("replacement vehicle is the same as the current one")
	}

	newVehicle, err := s.vehicleRepo.GetByID(ctx, newVehicleID)
	if err != nil {
		return nil, fmt.Errorf("replacement vehicle not found: %v", err)
	}
	if newVehicle.Status != models.VehicleAvailable {
		return nil, fmt.Errorf("replacement vehicle %s is not available", newVehicle.Plate)
	}

	reservation.VehicleID = &newVehicle.ID
	exchangeNote := fmt.Sprintf("vehicle exchange: %s", reason)
	if reservation.Notes != nil && *reservation.Notes != "" {
		exchangeNote = *reservation.Notes + "; " + exchangeNote
	}
	reservation.Notes = &exchangeNote
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %v", err)
	}

	if err := s.vehicleRepo.UpdateStatus(ctx, oldVehicleID, models.VehicleMaintenance); err != nil {
		return nil, fmt.Errorf("failed to park old vehicle: %v", err)
	}
	if err := s.vehicleRepo.UpdateStatus(ctx, newVehicle.ID, models.VehicleRented); err != nil {
		return nil, fmt.Errorf("failed to assign replacement vehicle: %v", err)
	}

	s.eventBus.Publish(bus.DataChanged{Entity: "reservations", ID: reservation.ID.String()})
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: newVehicle.ID.String()})
	s.eventBus.Publish(bus.ShowNotification{
		Severity: bus.SeverityInfo,
		Text:     fmt.Sprintf("Vehicle exchanged on %s: now %s", confirmationNo, newVehicle.Plate),
	})
	return reservation, nil
}

// rentalDays counts chargeable days, minimum one, partial days rounded up.
func rentalDays(rentDate *time.Time, returnedAt time.Time) int {
	if rentDate == nil {
		return 1
	}
	hours := returnedAt.Sub(*rentDate).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}
