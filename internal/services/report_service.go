package services

import (
	"context"
	"fmt"
	"time"

	"rentdesk/internal/models"
	"rentdesk/internal/querycache"
	"rentdesk/internal/repositories"
)

// FleetReport summarizes vehicle availability across the fleet.
type FleetReport struct {
	TotalVehicles  int            `json:"total_vehicles"`
	ByStatus       map[string]int `json:"by_status"`
	ByBranch       map[string]int `json:"by_branch"`
	UtilizationPct float64        `json:"utilization_pct"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// RevenueReport summarizes closed rentals in a date range.
type RevenueReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Rentals      int       `json:"rentals"`
	TotalRevenue float64   `json:"total_revenue"`
	AvgDailyRate float64   `json:"avg_daily_rate"`
	Stale        bool      `json:"stale"`
}

// ReportService produces management reports. Results go through the query
// cache so dashboards polling the same range share one computation.
type ReportService interface {
	FleetUtilization(ctx context.Context) (*FleetReport, error)
	Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error)
}

type reportService struct {
	vehicleRepo     repositories.VehicleRepository
	reservationRepo repositories.ReservationRepository
	cache           *querycache.Cache
}

const reportFetchLimit = 5000

func NewReportService(vehicleRepo repositories.VehicleRepository, reservationRepo repositories.ReservationRepository, cache *querycache.Cache) ReportService {
	return &reportService{
		vehicleRepo:     vehicleRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
	}
}

func (s *reportService) FleetUtilization(ctx context.Context) (*FleetReport, error) {
	report, res := querycache.Fetch(ctx, s.cache, "reports", map[string]string{"kind": "fleet"}, func(ctx context.Context) (*FleetReport, error) {
		vehicles, err := s.vehicleRepo.List(ctx, reportFetchLimit, 0)
		if err != nil {
			return nil, err
		}

		report := &FleetReport{
			ByStatus:    make(map[string]int),
			ByBranch:    make(map[string]int),
			GeneratedAt: time.Now(),
		}
		active := 0
		for _, v := range vehicles {
			if v.Status == models.VehicleRetired {
				continue
			}
			report.TotalVehicles++
			report.ByStatus[v.Status]++
			report.ByBranch[v.BranchCode]++
			if v.Status == models.VehicleRented {
				active++
			}
		}
		if report.TotalVehicles > 0 {
			report.UtilizationPct = 100 * float64(active) / float64(report.TotalVehicles)
		}
		return report, nil
	})
	if res.Err != nil && !res.Stale {
		return nil, fmt.Errorf("failed to build fleet report: %v", res.Err)
	}
	return report, nil
}

func (s *reportService) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	params := map[string]string{
		"kind": "revenue",
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
	}
	report, res := querycache.Fetch(ctx, s.cache, "reports", params, func(ctx context.Context) (*RevenueReport, error) {
		filter := &repositories.ReservationSearchFilter{
			Status:    models.ReservationReturned,
			StartDate: &from,
			EndDate:   &to,
			Limit:     reportFetchLimit,
		}
		reservations, err := s.reservationRepo.AdvancedSearch(ctx, filter)
		if err != nil {
			return nil, err
		}

		report := &RevenueReport{From: from, To: to}
		var rateSum float64
		for _, r := range reservations {
			days := rentalDays(r.RentDate, safeTime(r.ReturnDate))
			report.Rentals++
			report.TotalRevenue += float64(days) * r.DailyRate
			rateSum += r.DailyRate
		}
		if report.Rentals > 0 {
			report.AvgDailyRate = rateSum / float64(report.Rentals)
		}
		return report, nil
	})
	if res.Err != nil && !res.Stale {
		return nil, fmt.Errorf("failed to build revenue report: %v", res.Err)
	}
	if report != nil {
		report.Stale = res.Stale
	}
	return report, nil
}

func safeTime(t *time.Time) time.Time {
	if t == nil {
		return time.Now()
	}
	return *t
}
