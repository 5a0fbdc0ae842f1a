package domain

import "time"

// Bid is a monetary offer by a user for an open plate. A user holds at most
// one bid per plate and raises it by updating the amount.
type Bid struct {
	ID        int64
	Amount    float64
	UserID    int64
	PlateID   int64
	CreatedAt time.Time
}
