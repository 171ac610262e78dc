package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DueUnitMinutes = "minutes"
	DueUnitHours   = "hours"
	DueUnitDays    = "days"
	DueUnitWeeks   = "weeks"
	DueUnitMonths  = "months"
)

// NormalizeDueUnit maps accepted spellings ("day", "Days", "d") onto the
// canonical unit names.
func NormalizeDueUnit(unit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "minute", "minutes", "min", "m":
		return DueUnitMinutes, nil
	case "hour", "hours", "h":
		return DueUnitHours, nil
	case "", "day", "days", "d":
		return DueUnitDays, nil
	case "week", "weeks", "w":
		return DueUnitWeeks, nil
	case "month", "months":
		return DueUnitMonths, nil
	default:
		return "", fmt.Errorf("unknown due date unit %q", unit)
	}
}

// DueDate computes enteredAt + value*unit. Days, weeks and months use
// calendar arithmetic so the wall-clock time of day is preserved.
func DueDate(enteredAt time.Time, value int, unit string) (time.Time, error) {
	if value < 0 {
		return time.Time{}, fmt.Errorf("due date value must not be negative, got %d", value)
	}
	canonical, err := NormalizeDueUnit(unit)
	if err != nil {
		return time.Time{}, err
	}

	switch canonical {
	case DueUnitMinutes:
		return enteredAt.Add(time.Duration(value) * time.Minute), nil
	case DueUnitHours:
		return enteredAt.Add(time.Duration(value) * time.Hour), nil
	case DueUnitWeeks:
		return enteredAt.AddDate(0, 0, 7*value), nil
	case DueUnitMonths:
		return enteredAt.AddDate(0, value, 0), nil
	default:
		return enteredAt.AddDate(0, 0, value), nil
	}
}
