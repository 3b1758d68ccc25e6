package worker

import (
	"time"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Job names, also used as lease keys and metric labels.
const (
	JobShipmentPolling    = "shipment-polling"
	JobAutoConfirm        = "auto-confirm"
	JobAutoConfirmWarning = "auto-confirm-warning"
	JobDeadlineReminders  = "deadline-reminders"
	JobOfferExpiry        = "offer-expiry"
)

// Schedule holds job intervals.
type Schedule struct {
	ShipmentPoll time.Duration
	AutoConfirm  time.Duration
	Reminders    time.Duration
	OfferExpiry  time.Duration
	LeaseTTL     time.Duration
}

// DefaultSchedule returns the production intervals.
func DefaultSchedule() Schedule {
	return Schedule{
		ShipmentPoll: 6 * time.Hour,
		AutoConfirm:  24 * time.Hour,
		Reminders:    24 * time.Hour,
		OfferExpiry:  time.Hour,
		LeaseTTL:     10 * time.Minute,
	}
}

// ReconciliationJobs binds the reconciliation use case to its schedule.
func ReconciliationJobs(recon *usecase.ReconciliationUseCase, schedule Schedule) []Job {
	return []Job{
		{Name: JobShipmentPolling, Interval: schedule.ShipmentPoll, Run: recon.PollShipments},
		{Name: JobAutoConfirm, Interval: schedule.AutoConfirm, Run: recon.AutoConfirm},
		{Name: JobAutoConfirmWarning, Interval: schedule.AutoConfirm, Run: recon.WarnAutoConfirm},
		{Name: JobDeadlineReminders, Interval: schedule.Reminders, Run: recon.RemindDeadlines},
		{Name: JobOfferExpiry, Interval: schedule.OfferExpiry, Run: recon.ExpireOffers},
	}
}
