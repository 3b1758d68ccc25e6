package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted inbox entry for a user.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ReminderKind names a one-shot scheduler notification for an order.
type ReminderKind string

const ReminderAutoConfirmWarning ReminderKind = "auto_confirm_warning"

// DeadlineReminderKind builds the reminder key for a deadline offset in days.
// Negative offsets are overdue reminders.
func DeadlineReminderKind(party Party, daysBefore int) ReminderKind {
	suffix := "overdue"
	if daysBefore >= 0 {
		suffix = strconv.Itoa(daysBefore) + "d"
	}
	return ReminderKind("deadline_" + string(party) + "_" + suffix)
}
