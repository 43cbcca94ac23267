package app

import (
	"context"
	"fmt"

	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/readsvc"
)

// Collection-specific read helpers. Owner-scoped filters keep deletion
// detection enabled on the underlying pull.

// Events returns all events, newest start date first.
func (a *App) Events(ctx context.Context) ([]models.Record, error) {
	return a.reads.GetData(ctx, "events", readsvc.Options{Sort: "-start_date"})
}

// Users returns all member records sorted by name.
func (a *App) Users(ctx context.Context) ([]models.Record, error) {
	return a.reads.GetData(ctx, "users", readsvc.Options{Sort: "name"})
}

// AttendeesForEvent returns the check-in rows of one event.
func (a *App) AttendeesForEvent(ctx context.Context, eventID string) ([]models.Record, error) {
	return a.reads.GetData(ctx, "event_attendees", readsvc.Options{
		Filter: fmt.Sprintf("event_id=%q", eventID),
	})
}

// OfficersByRole returns officer records holding the given title.
func (a *App) OfficersByRole(ctx context.Context, role string) ([]models.Record, error) {
	return a.reads.GetData(ctx, "officers", readsvc.Options{
		Filter: fmt.Sprintf("title=%q", role),
	})
}

// LogsFor returns the activity log of one member, most recent first.
func (a *App) LogsFor(ctx context.Context, userID string) ([]models.Record, error) {
	return a.reads.GetData(ctx, "logs", readsvc.Options{
		Filter: fmt.Sprintf("user_id=%q", userID),
		Sort:   "-created",
	})
}

// Reimbursements returns reimbursement requests, optionally scoped to the
// member who filed them.
func (a *App) Reimbursements(ctx context.Context, submittedBy string) ([]models.Record, error) {
	opts := readsvc.Options{Sort: "-created"}
	if submittedBy != "" {
		opts.Filter = fmt.Sprintf("submitted_by=%q", submittedBy)
	}
	return a.reads.GetData(ctx, "reimbursements", opts)
}
