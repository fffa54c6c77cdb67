package dates

import (
	"fmt"
	"time"

	"github.com/marktkorb/marktkorb-backend/pkg/config"
)

const dateKeyLayout = "20060102"

// Utils computes the weekly pickup cadence: which future dates a buyer can
// order for, and until when an order for a given pickup date stays editable.
// All methods take the reference instant explicitly so callers (and tests)
// control the clock.
type Utils struct {
	pickupDay    time.Weekday
	cutoffDay    time.Weekday
	cutoffHour   int
	cutoffMinute int
	loc          *time.Location
}

// New builds date utils from the market configuration.
func New(cfg config.MarketConfig) (*Utils, error) {
	pickupDay, err := config.ParseWeekday(cfg.PickupWeekday)
	if err != nil {
		return nil, fmt.Errorf("pickup weekday: %w", err)
	}
	cutoffDay, err := config.ParseWeekday(cfg.CutoffWeekday)
	if err != nil {
		return nil, fmt.Errorf("cutoff weekday: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Utils{
		pickupDay:    pickupDay,
		cutoffDay:    cutoffDay,
		cutoffHour:   cfg.CutoffHour,
		cutoffMinute: cfg.CutoffMinute,
		loc:          loc,
	}, nil
}

// DateKey renders the canonical YYYYMMDD addressing key for the given instant
// in the market timezone.
func (u *Utils) DateKey(t time.Time) string {
	return t.In(u.loc).Format(dateKeyLayout)
}

// AvailablePickupDates returns the next count pickup instants that are still
// placeable: strictly in the future, on the pickup weekday, with the weekly
// order cutoff not yet passed.
func (u *Utils) AvailablePickupDates(now time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}

	out := make([]time.Time, 0, count)
	candidate := u.nextPickupDate(now)
	for len(out) < count {
		if now.Before(u.EditCutoff(candidate)) {
			out = append(out, candidate)
		}
		candidate = candidate.AddDate(0, 0, 7)
	}
	return out
}

// IsPickupDateValid reports whether a previously selected pickup date is
// still orderable: in the future, on the pickup weekday, and before its
// cutoff. Selections go stale while dialogs sit open, so this is re-checked
// immediately before every remote mutation.
func (u *Utils) IsPickupDateValid(now, date time.Time) bool {
	local := date.In(u.loc)
	if !local.After(now) {
		return false
	}
	if local.Weekday() != u.pickupDay {
		return false
	}
	return now.Before(u.EditCutoff(date))
}

// CanEditOrder reports whether an order for the given pickup date may still
// be created, changed, or cancelled. The answer flips to false exactly at the
// cutoff instant and never back for that date.
func (u *Utils) CanEditOrder(now, pickupDate time.Time) bool {
	return now.Before(u.EditCutoff(pickupDate))
}

// EditCutoff returns the weekly cutoff instant preceding the given pickup
// date: the last occurrence of the cutoff weekday strictly before the pickup
// day, at the configured wall time.
func (u *Utils) EditCutoff(pickupDate time.Time) time.Time {
	local := pickupDate.In(u.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, u.loc)
	for {
		day = day.AddDate(0, 0, -1)
		if day.Weekday() == u.cutoffDay {
			break
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), u.cutoffHour, u.cutoffMinute, 0, 0, u.loc)
}

// nextPickupDate returns the first pickup-day midnight strictly after now.
func (u *Utils) nextPickupDate(now time.Time) time.Time {
	local := now.In(u.loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, u.loc)
	for {
		candidate = candidate.AddDate(0, 0, 1)
		if candidate.Weekday() == u.pickupDay {
			return candidate
		}
	}
}
