package services

import (
	"context"
	"fmt"

	"rentdesk/internal/bus"
	"rentdesk/internal/models"
	"rentdesk/internal/repositories"

	"github.com/google/uuid"
)

type VehicleService interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Retire(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error)
	ListAvailable(ctx context.Context, branchCode, class string) ([]*models.Vehicle, error)
}

type vehicleService struct {
	repo     repositories.VehicleRepository
	eventBus *bus.Bus
}

func NewVehicleService(repo repositories.VehicleRepository, eventBus *bus.Bus) VehicleService {
	return &vehicleService{repo: repo, eventBus: eventBus}
}

func (s *vehicleService) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.Plate == "" {
		return fmt.Errorf("plate is required")
	}
	if vehicle.DailyRate <= 0 {
		return fmt.Errorf("daily rate must be positive")
	}
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleAvailable
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return fmt.Errorf("failed to create vehicle: %v", err)
	}
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: vehicle.ID.String()})
	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("vehicle not found: %v", err)
	}
	return vehicle, nil
}

func (s *vehicleService) Update(ctx context.Context, vehicle *models.Vehicle) error {
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return fmt.Errorf("failed to update vehicle: %v", err)
	}
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: vehicle.ID.String()})
	return nil
}

// Retire takes a vehicle out of the fleet. A vehicle that is currently out
// with a customer cannot be retired.
func (s *vehicleService) Retire(ctx context.Context, id uuid.UUID) error {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("vehicle not found: %v", err)
	}
	if vehicle.Status == models.VehicleRented {
		return fmt.Errorf("vehicle %s is rented out and cannot be retired", vehicle.Plate)
	}
	if err := s.repo.UpdateStatus(ctx, id, models.VehicleRetired); err != nil {
		return fmt.Errorf("failed to retire vehicle: %v", err)
	}
	s.eventBus.Publish(bus.DataChanged{Entity: "vehicles", ID: id.String()})
	return nil
}

func (s *vehicleService) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *vehicleService) ListAvailable(ctx context.Context, branchCode, class string) ([]*models.Vehicle, error) {
	if branchCode == "" {
		return nil, fmt.Errorf("branch code is required")
	}
	return s.repo.ListAvailable(ctx, branchCode, class)
}
