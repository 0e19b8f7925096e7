package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/ticketbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender stands in for a mail provider: it renders the notice and logs it.
type Sender struct {
	log *logrus.Entry
}

func NewSender(log *logrus.Entry) *Sender {
	return &Sender{log: log.WithField("component", "email")}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": event.BookingID,
		"user_id":    event.UserID,
		"type":       event.Type,
	}).Info(Render(event))
	return nil
}

// Render builds the human readable body of a booking notice.
func Render(event kafka.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "booking %s for %s is %s:", event.BookingID, event.UserID, strings.ToLower(event.Status))
	var total int64
	for _, item := range event.Items {
		fmt.Fprintf(&b, " %dx%s@%d", item.Quantity, item.Tier, item.Price)
		total += int64(item.Quantity) * item.Price
	}
	fmt.Fprintf(&b, " total %d", total)
	return b.String()
}
