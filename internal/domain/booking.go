package domain

import "time"

type BookingStatus string

// Confirmed is the only status a booking can reach; there is no cancellation flow.
const BookingStatusConfirmed BookingStatus = "CONFIRMED"

// DefaultUserID is used when a booking request carries no user.
const DefaultUserID = "mock-user"

type Booking struct {
	ID        string
	UserID    string
	Status    BookingStatus
	CreatedAt time.Time
	Items     []BookingItem
}

// BookingItem keeps the unit price captured at booking time.
type BookingItem struct {
	ID        string
	BookingID string
	TierID    string
	TierName  TierName
	Quantity  int
	Price     int64
}

// TotalQuantity sums the quantities of all items.
func (b Booking) TotalQuantity() int {
	total := 0
	for _, item := range b.Items {
		total += item.Quantity
	}
	return total
}
