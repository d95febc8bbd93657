package services

import (
	"context"
	"testing"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/models"
	"rentdesk/internal/querycache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReservationServiceTestSuite struct {
	suite.Suite
	repo     *MockReservationRepo
	cache    *querycache.Cache
	eventBus *bus.Bus
	service  ReservationService
	context  context.Context
}

func (suite *ReservationServiceTestSuite) SetupTest() {
	suite.repo = new(MockReservationRepo)
	suite.cache = querycache.New(nil, "rentdesk:test", querycache.Options{
		StaleAfter: time.Minute,
		MaxAge:     time.Hour,
	})
	suite.eventBus = bus.New()
	suite.service = NewReservationService(suite.repo, suite.cache, suite.eventBus)
	suite.context = context.Background()
}

func TestReservationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationServiceTestSuite))
}

func lookupFixtures() []*models.Reservation {
	mk := func(no, name, status, branch string, rentDate time.Time) *models.Reservation {
		d := rentDate
		return &models.Reservation{
			ID:             uuid.New(),
			ConfirmationNo: no,
			CustomerName:   name,
			Status:         status,
			PickupBranch:   branch,
			RentDate:       &d,
		}
	}
	return []*models.Reservation{
		mk("RES-1001", "Sarah Davis", models.ReservationConfirmed, "DEL", time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)),
		mk("RES-1002", "John Miller", models.ReservationConfirmed, "BOM", time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)),
		mk("RES-1003", "Priya Shah", models.ReservationRented, "DEL", time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)),
		mk("RES-1004", "Chen Wei", models.ReservationReturned, "DEL", time.Date(2025, 1, 28, 12, 0, 0, 0, time.UTC)),
	}
}

func (suite *ReservationServiceTestSuite) TestLookup_FiltersCompose() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	result, err := suite.service.Lookup(suite.context, LookupParams{
		Status:    models.ReservationConfirmed,
		Location:  "DEL",
		StartDate: "2025-01-01",
		EndDate:   "2025-01-31",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.TotalFiltered)
	assert.Equal(suite.T(), "RES-1001", result.Items[0].ConfirmationNo)
	assert.True(suite.T(), result.HasFilters)
	assert.False(suite.T(), result.Stale)
}

func (suite *ReservationServiceTestSuite) TestLookup_SentinelAndEmptyAreUnconstrained() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	result, err := suite.service.Lookup(suite.context, LookupParams{Status: "All", Location: ""})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, result.TotalFiltered)
	assert.False(suite.T(), result.HasFilters)
}

func (suite *ReservationServiceTestSuite) TestLookup_SearchMatchesCustomer() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	result, err := suite.service.Lookup(suite.context, LookupParams{Search: "sarah"})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.TotalFiltered)
	assert.Equal(suite.T(), "Sarah Davis", result.Items[0].CustomerName)
}

func (suite *ReservationServiceTestSuite) TestLookup_SecondCallServedFromCache() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	_, err := suite.service.Lookup(suite.context, LookupParams{})
	assert.NoError(suite.T(), err)

	// Different filters, same cached dataset: the repo is hit once.
	result, err := suite.service.Lookup(suite.context, LookupParams{Status: models.ReservationRented})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.TotalFiltered)

	suite.repo.AssertNumberOfCalls(suite.T(), "List", 1)
}

func (suite *ReservationServiceTestSuite) TestLookup_Pagination() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	result, err := suite.service.Lookup(suite.context, LookupParams{PageSize: 3, PageIndex: 1})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, result.TotalFiltered)
	assert.Len(suite.T(), result.Items, 1)
	assert.Equal(suite.T(), 1, result.Page.PageIndex)
}

func (suite *ReservationServiceTestSuite) TestLookup_MalformedDatesDegradeToUnconstrained() {
	suite.repo.On("List", suite.context, lookupFetchLimit, 0).Return(lookupFixtures(), nil).Once()

	result, err := suite.service.Lookup(suite.context, LookupParams{StartDate: "not-a-date", EndDate: "31/01/2025"})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, result.TotalFiltered)
}

func (suite *ReservationServiceTestSuite) TestCancel_RentedRefused() {
	reservation := lookupFixtures()[2] // Rented
	suite.repo.On("GetByConfirmationNo", suite.context, "RES-1003").Return(reservation, nil)

	err := suite.service.Cancel(suite.context, "RES-1003")
	assert.Error(suite.T(), err)
	suite.repo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *ReservationServiceTestSuite) TestCreate_DefaultsApplied() {
	reservation := &models.Reservation{CustomerName: "New Customer"}
	suite.repo.On("Create", suite.context, reservation).Return(nil)

	var changed []bus.DataChanged
	suite.eventBus.Subscribe(bus.KindDataChanged, func(m bus.Message) {
		changed = append(changed, m.(bus.DataChanged))
	})

	err := suite.service.Create(suite.context, reservation)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, reservation.ID)
	assert.NotEmpty(suite.T(), reservation.ConfirmationNo)
	assert.Equal(suite.T(), models.ReservationPending, reservation.Status)
	assert.Len(suite.T(), changed, 1)
	assert.Equal(suite.T(), "reservations", changed[0].Entity)
}
