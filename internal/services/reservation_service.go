package services

import (
	"context"
	"fmt"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/filtering"
	"rentdesk/internal/models"
	"rentdesk/internal/querycache"
	"rentdesk/internal/repositories"

	"github.com/google/uuid"
)

// LookupParams carries the lookup table's filter bar, search box, and pager.
type LookupParams struct {
	StartDate string `json:"start_date" query:"start_date"`
	EndDate   string `json:"end_date" query:"end_date"`
	Status    string `json:"status" query:"status"`
	Location  string `json:"location" query:"location"`
	Search    string `json:"search" query:"search"`
	PageIndex int    `json:"page_index" query:"page_index"`
	PageSize  int    `json:"page_size" query:"page_size"`
}

// LookupResult is one page of filtered reservations plus enough metadata to
// render the pager. Stale marks data served from cache past its freshness
// window because the database could not be reached.
type LookupResult struct {
	Items         []*models.Reservation `json:"items"`
	TotalFiltered int                   `json:"total_filtered"`
	Page          filtering.Pagination  `json:"page"`
	ActiveFilters filtering.FilterState `json:"active_filters"`
	HasFilters    bool                  `json:"has_filters"`
	Stale         bool                  `json:"stale"`
}

// ReservationService serves the reservation lookup screen and basic
// reservation management.
type ReservationService interface {
	Lookup(ctx context.Context, params LookupParams) (*LookupResult, error)
	GetByConfirmationNo(ctx context.Context, confirmationNo string) (*models.Reservation, error)
	Create(ctx context.Context, reservation *models.Reservation) error
	Cancel(ctx context.Context, confirmationNo string) error
}

type reservationService struct {
	repo     repositories.ReservationRepository
	cache    *querycache.Cache
	eventBus *bus.Bus
}

// lookupFetchLimit bounds how many rows one cached dataset holds. Filtering
// and pagination run in memory on this set.
const lookupFetchLimit = 2000

func NewReservationService(repo repositories.ReservationRepository, cache *querycache.Cache, eventBus *bus.Bus) ReservationService {
	return &reservationService{repo: repo, cache: cache, eventBus: eventBus}
}

// Lookup runs the filtered, searched, paginated reservation query. The row
// set comes through the query cache; filter, search, and pagination are
// applied in memory so repeated filter changes never re-hit the database.
func (s *reservationService) Lookup(ctx context.Context, params LookupParams) (*LookupResult, error) {
	rows, res := querycache.Fetch(ctx, s.cache, "reservations", nil, func(ctx context.Context) ([]*models.Reservation, error) {
		return s.repo.List(ctx, lookupFetchLimit, 0)
	})
	if res.Err != nil && !res.Stale {
		return nil, fmt.Errorf("failed to load reservations: %v", res.Err)
	}

	engine := filtering.NewEngine[*models.Reservation]()
	engine.SetRows(rows)
	engine.SubmitFilters(filtering.FilterState{
		StartDate: filtering.ParseDate(params.StartDate),
		EndDate:   filtering.ParseDate(params.EndDate),
		Status:    params.Status,
		Location:  params.Location,
	})
	engine.SetSearch(params.Search)
	if params.PageSize > 0 {
		engine.SetPageSize(params.PageSize)
	}
	engine.SetPageIndex(params.PageIndex)

	filtered := engine.FilteredData()
	return &LookupResult{
		Items:         engine.CurrentPage(),
		TotalFiltered: len(filtered),
		Page:          engine.Page(),
		ActiveFilters: engine.Filters(),
		HasFilters:    engine.HasActiveFilters(),
		Stale:         res.Stale,
	}, nil
}

func (s *reservationService) GetByConfirmationNo(ctx context.Context, confirmationNo string) (*models.Reservation, error) {
	reservation, err := s.repo.GetByConfirmationNo(ctx, confirmationNo)
	if err != nil {
		return nil, fmt.Errorf("reservation not found: %v", err)
	}
	return reservation, nil
}

func (s *reservationService) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if reservation.ConfirmationNo == "" {
		reservation.ConfirmationNo = newConfirmationNo()
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationPending
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return fmt.Errorf("failed to create reservation: %v", err)
	}

	s.eventBus.Publish(bus.DataChanged{Entity: "reservations", ID: reservation.ID.String()})
	return nil
}

func (s *reservationService) Cancel(ctx context.Context, confirmationNo string) error {
	reservation, err := s.repo.GetByConfirmationNo(ctx, confirmationNo)
	if err != nil {
		return fmt.Errorf("reservation not found: %v", err)
	}
	if reservation.Status == models.ReservationRented {
		return fmt.Errorf("cannot cancel %s while the vehicle is out", confirmationNo)
	}
	if reservation.Status == models.ReservationReturned || reservation.Status == models.ReservationCancelled {
		return fmt.Errorf("reservation %s is already closed", confirmationNo)
	}

	reservation.Status = models.ReservationCancelled
	if err := s.repo.Update(ctx, reservation); err != nil {
		return fmt.Errorf("failed to cancel reservation: %v", err)
	}

	s.eventBus.Publish(bus.DataChanged{Entity: "reservations", ID: reservation.ID.String()})
	s.eventBus.Publish(bus.ShowNotification{
		Severity: bus.SeverityInfo,
		Text:     fmt.Sprintf("Reservation %s cancelled", confirmationNo),
	})
	return nil
}

func newConfirmationNo() string {
	return fmt.Sprintf("RES-%d", time.Now().UnixNano()%1_000_000_000)
}
