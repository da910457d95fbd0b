package loans

import (
	"time"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
)

// CalendarDate maps a time to its calendar day: the wall-clock
// year/month/day pinned to UTC midnight. All overdue comparisons work on
// calendar dates, so a book due on the 15th is not late at 23:59 on the
// 15th. Pinning to UTC keeps day arithmetic exact across DST changes and
// makes dates loaded back from the database comparable with freshly
// computed ones regardless of location.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysLate returns the number of whole calendar days the return date is
// past the due date, or 0 for an on-time return.
func DaysLate(due, returned time.Time) int {
	d := CalendarDate(returned).Sub(CalendarDate(due))
	days := int(d.Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CalculateFine computes the overdue fine for a return: days late times
// the per-day rate, capped when cap > 0. Pure function of its inputs.
func CalculateFine(due, returned time.Time, perDay, cap int64) int64 {
	fine := int64(DaysLate(due, returned)) * perDay
	if cap > 0 && fine > cap {
		return cap
	}
	return fine
}

// EffectiveStatus derives the loan's presentation status at a point in
// time. "overdue" is never stored; an open loan past its due date reads as
// overdue here while remaining "issued" in the database.
func EffectiveStatus(loan *entities.Loan, now time.Time) entities.LoanStatus {
	if loan.ReturnedAt != nil {
		return entities.LoanStatusReturned
	}
	if CalendarDate(now).After(CalendarDate(loan.DueDate)) {
		return entities.LoanStatusOverdue
	}
	return entities.LoanStatusIssued
}

// DefaultPolicy converts the configured loan defaults into a settings
// policy, used as the fallback for unset overrides.
func DefaultPolicy(cfg config.Loans) settings.LoanPolicy {
	return settings.LoanPolicy{
		FinePerDay:        cfg.FinePerDay,
		FineCap:           cfg.FineCap,
		LoanPeriodDays:    cfg.LoanPeriodDays,
		RenewalPeriodDays: cfg.RenewalPeriodDays,
		MaxRenewals:       cfg.MaxRenewals,
		MaxOpenLoans:      cfg.MaxOpenLoans,
	}
}
