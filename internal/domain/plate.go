package domain

import (
	"strings"
	"time"
)

// MaxPlateNumberLength is the width of the plate_number column.
const MaxPlateNumberLength = 10

// Plate is an auctionable listing for a license-plate number.
type Plate struct {
	ID          int64
	PlateNumber string
	Description string
	Deadline    time.Time
	IsActive    bool
	CreatedByID int64
	CreatedAt   time.Time
}

// IsOpen reports whether bids may be created, changed or withdrawn at now.
func (p *Plate) IsOpen(now time.Time) bool {
	return p != nil && p.IsActive && p.Deadline.After(now)
}

// PlateOrdering is a sort key accepted by the open plate listing.
type PlateOrdering string

const (
	OrderByDeadline        PlateOrdering = "deadline"
	OrderByDeadlineDesc    PlateOrdering = "-deadline"
	OrderByPlateNumber     PlateOrdering = "plate_number"
	OrderByPlateNumberDesc PlateOrdering = "-plate_number"
)

// ParsePlateOrdering validates a raw ordering query value. An empty value
// selects OrderByDeadline.
func ParsePlateOrdering(raw string) (PlateOrdering, error) {
	switch o := PlateOrdering(strings.TrimSpace(raw)); o {
	case "":
		return OrderByDeadline, nil
	case OrderByDeadline, OrderByDeadlineDesc, OrderByPlateNumber, OrderByPlateNumberDesc:
		return o, nil
	default:
		return "", ErrInvalidOrdering
	}
}

// Column returns the plates column the ordering sorts on.
func (o PlateOrdering) Column() string {
	return strings.TrimPrefix(string(o), "-")
}

// Descending reports whether the ordering is reversed.
func (o PlateOrdering) Descending() bool {
	return strings.HasPrefix(string(o), "-")
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDeadline accepts RFC 3339 timestamps. Values without a zone are read
// as UTC.
func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDeadline
}

// NormalizePlateNumber trims the number and checks it fits the column.
func NormalizePlateNumber(raw string) (string, error) {
	number := strings.TrimSpace(raw)
	if number == "" {
		return "", ErrPlateNumberRequired
	}
	if len([]rune(number)) > MaxPlateNumberLength {
		return "", ErrPlateNumberTooLong
	}
	return number, nil
}
