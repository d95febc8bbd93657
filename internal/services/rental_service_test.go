package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/models"
	"rentdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, reservation *models.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepo) GetByConfirmationNo(ctx context.Context, confirmationNo string) (*models.Reservation, error) {
	args := m.Called(ctx, confirmationNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepo) Update(ctx context.Context, reservation *models.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationRepo) List(ctx context.Context, limit, offset int) ([]*models.Reservation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockReservationRepo) AdvancedSearch(ctx context.Context, filter *repositories.ReservationSearchFilter) ([]*models.Reservation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockReservationRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockVehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVehicleRepo) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) ListAvailable(ctx context.Context, branchCode, class string) ([]*models.Vehicle, error) {
	args := m.Called(ctx, branchCode, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

type RentalServiceTestSuite struct {
	suite.Suite
	reservationRepo *MockReservationRepo
	vehicleRepo     *MockVehicleRepo
	eventBus        *bus.Bus
	service         RentalService
	context         context.Context

	notifications []bus.ShowNotification
	dataChanges   []bus.DataChanged
}

func (suite *RentalServiceTestSuite) SetupTest() {
	suite.reservationRepo = new(MockReservationRepo)
	suite.vehicleRepo = new(MockVehicleRepo)
	suite.eventBus = bus.New()
	suite.service = NewRentalService(suite.reservationRepo, suite.vehicleRepo, suite.eventBus)
	suite.context = context.Background()

	suite.notifications = nil
	suite.dataChanges = nil
	suite.eventBus.Subscribe(bus.KindShowNotification, func(m bus.Message) {
		suite.notifications = append(suite.notifications, m.(bus.ShowNotification))
	})
	suite.eventBus.Subscribe(bus.KindDataChanged, func(m bus.Message) {
		suite.dataChanges = append(suite.dataChanges, m.(bus.DataChanged))
	})
}

func TestRentalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RentalServiceTestSuite))
}

func confirmedReservation() *models.Reservation {
	return &models.Reservation{
		ID:             uuid.New(),
		ConfirmationNo: "RES-1001",
		CustomerName:   "Sarah Davis",
		PickupBranch:   "DEL",
		ReturnBranch:   "DEL",
		Status:         models.ReservationConfirmed,
	}
}

func availableVehicle() *models.Vehicle {
	return &models.Vehicle{
		ID:         uuid.New(),
		Plate:      "DL-01-AB-1234",
		BranchCode: "DEL",
		Status:     models.VehicleAvailable,
		DailyRate:  49.99,
		Odometer:   12000,
	}
}

func (suite *RentalServiceTestSuite) TestRentVehicle_Success() {
	reservation := confirmedReservation()
	vehicle := availableVehicle()

	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)
	suite.vehicleRepo.On("GetByID", suite.context, vehicle.ID).Return(vehicle, nil)
	suite.reservationRepo.On("Update", suite.context, reservation).Return(nil)
	suite.vehicleRepo.On("UpdateStatus", suite.context, vehicle.ID, models.VehicleRented).Return(nil)

	got, err := suite.service.RentVehicle(suite.context, "RES-1001", vehicle.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ReservationRented, got.Status)
	assert.Equal(suite.T(), vehicle.ID, *got.VehicleID)
	assert.Equal(suite.T(), vehicle.DailyRate, got.DailyRate)
	assert.NotNil(suite.T(), got.RentDate)

	assert.Len(suite.T(), suite.notifications, 1)
	assert.Equal(suite.T(), bus.SeveritySuccess, suite.notifications[0].Severity)
	assert.Len(suite.T(), suite.dataChanges, 2)

	suite.reservationRepo.AssertExpectations(suite.T())
	suite.vehicleRepo.AssertExpectations(suite.T())
}

func (suite *RentalServiceTestSuite) TestRentVehicle_WrongStatus() {
	reservation := confirmedReservation()
	reservation.Status = models.ReservationCancelled
	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)

	_, err := suite.service.RentVehicle(suite.context, "RES-1001", uuid.New())
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "expected Confirmed")
	assert.Empty(suite.T(), suite.dataChanges)
}

func (suite *RentalServiceTestSuite) TestRentVehicle_VehicleAtWrongBranch() {
	reservation := confirmedReservation()
	vehicle := availableVehicle()
	vehicle.BranchCode = "BOM"

	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)
	suite.vehicleRepo.On("GetByID", suite.context, vehicle.ID).Return(vehicle, nil)

	_, err := suite.service.RentVehicle(suite.context, "RES-1001", vehicle.ID)
	assert.Error(suite.T(), err)
	suite.reservationRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *RentalServiceTestSuite) TestReturnVehicle_Success() {
	vehicle := availableVehicle()
	vehicle.Status = models.VehicleRented

	rentDate := time.Now().Add(-49 * time.Hour) // just over two days
	reservation := confirmedReservation()
	reservation.Status = models.ReservationRented
	reservation.VehicleID = &vehicle.ID
	reservation.RentDate = &rentDate
	reservation.DailyRate = 50.0

	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)
	suite.vehicleRepo.On("GetByID", suite.context, vehicle.ID).Return(vehicle, nil)
	suite.reservationRepo.On("Update", suite.context, reservation).Return(nil)
	suite.vehicleRepo.On("Update", suite.context, vehicle).Return(nil)

	summary, err := suite.service.ReturnVehicle(suite.context, "RES-1001", 12500, "scratch on bumper")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, summary.Days) // partial third day is chargeable
	assert.Equal(suite.T(), 150.0, summary.TotalCharge)
	assert.Equal(suite.T(), models.ReservationReturned, reservation.Status)
	assert.Equal(suite.T(), models.VehicleAvailable, vehicle.Status)
	assert.Equal(suite.T(), 12500, vehicle.Odometer)
	assert.Equal(suite.T(), "scratch on bumper", *reservation.Notes)
}

func (suite *RentalServiceTestSuite) TestReturnVehicle_NotRented() {
	reservation := confirmedReservation()
	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)

	_, err := suite.service.ReturnVehicle(suite.context, "RES-1001", 0, "")
	assert.Error(suite.T(), err)
}

func (suite *RentalServiceTestSuite) TestExchangeVehicle_Success() {
	oldVehicle := availableVehicle()
	oldVehicle.Status = models.VehicleRented
	newVehicle := availableVehicle()
	newVehicle.ID = uuid.New()
	newVehicle.Plate = "DL-01-CD-5678"

	reservation := confirmedReservation()
	reservation.Status = models.ReservationRented
	reservation.VehicleID = &oldVehicle.ID

	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)
	suite.vehicleRepo.On("GetByID", suite.context, newVehicle.ID).Return(newVehicle, nil)
	suite.reservationRepo.On("Update", suite.context, reservation).Return(nil)
	suite.vehicleRepo.On("UpdateStatus", suite.context, oldVehicle.ID, models.VehicleMaintenance).Return(nil)
	suite.vehicleRepo.On("UpdateStatus", suite.context, newVehicle.ID, models.VehicleRented).Return(nil)

	got, err := suite.service.ExchangeVehicle(suite.context, "RES-1001", newVehicle.ID, "engine warning light")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), newVehicle.ID, *got.VehicleID)
	assert.Contains(suite.T(), *got.Notes, "engine warning light")

	suite.vehicleRepo.AssertExpectations(suite.T())
}

func (suite *RentalServiceTestSuite) TestExchangeVehicle_SameVehicleRejected() {
	vehicle := availableVehicle()
	reservation := confirmedReservation()
	reservation.Status = models.ReservationRented
	reservation.VehicleID = &vehicle.ID

	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-1001").Return(reservation, nil)

	_, err := suite.service.ExchangeVehicle(suite.context, "RES-1001", vehicle.ID, "whatever")
	assert.Error(suite.T(), err)
}

func (suite *RentalServiceTestSuite) TestRentVehicle_ReservationMissing() {
	suite.reservationRepo.On("GetByConfirmationNo", suite.context, "RES-9999").Return(nil, errors.New("no rows"))

	_, err := suite.service.RentVehicle(suite.context, "RES-9999", uuid.New())
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "reservation not found")
}
