package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/clock"
	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/kafka"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/payment"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*BookingResult, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
}

// CatalogInvalidator is told after every commit that cached availability is stale.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type BookInput struct {
	Tier     string `json:"tier"`
	Quantity int    `json:"quantity"`
	UserID   string `json:"userId"`
}

type BookingResult struct {
	BookingID string               `json:"bookingId"`
	Status    domain.BookingStatus `json:"status"`
	Items     []ResultItem         `json:"items"`
}

type ResultItem struct {
	Tier     domain.TierName `json:"tier"`
	Quantity int             `json:"quantity"`
	Price    int64           `json:"price"`
}

const (
	defaultTxTimeout = 5 * time.Second
	publishTimeout   = 5 * time.Second
)

type BookingService struct {
	store              repository.Store
	gate               payment.Gate
	catalog            CatalogInvalidator
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	txTimeout          time.Duration
	clock              clock.Clock
	defaultUserID      string
}

type BookingServiceOption func(*BookingService)

func WithCatalog(c CatalogInvalidator) BookingServiceOption {
	return func(s *BookingService) {
		s.catalog = c
	}
}

func WithProducer(p Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithTxTimeout bounds the atomic section, lock waits included.
func WithTxTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = c
	}
}

func WithDefaultUserID(id string) BookingServiceOption {
	return func(s *BookingService) {
		if id != "" {
			s.defaultUserID = id
		}
	}
}

func NewBookingService(store repository.Store, gate payment.Gate, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:         store,
		gate:          gate,
		txTimeout:     defaultTxTimeout,
		clock:         clock.NewSystem(),
		defaultUserID: domain.DefaultUserID,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book charges the caller, then locks the tier's inventory, records the
// booking and decrements stock as one transaction. Nothing is retried here.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*BookingResult, error) {
	if input.Tier == "" {
		return nil, domain.ErrTierRequired
	}
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	tier, err := domain.ParseTierName(input.Tier)
	if err != nil {
		return nil, err
	}
	userID := input.UserID
	if userID == "" {
		userID = s.defaultUserID
	}

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"tier":     tier,
		"quantity": input.Quantity,
		"user_id":  userID,
	})

	if err := s.gate.Authorize(ctx, payment.Charge{UserID: userID, Tier: tier, Quantity: input.Quantity}); err != nil {
		log.WithError(err).Info("payment declined")
		return nil, err
	}

	booking, err := s.reserve(ctx, tier, input.Quantity, userID)
	if err != nil {
		log.WithError(err).Info("booking rejected")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"tickets":    booking.TotalQuantity(),
	}).Info("booking confirmed")

	s.afterCommit(ctx, booking)
	return toResult(booking), nil
}

func (s *BookingService) reserve(ctx context.Context, name domain.TierName, quantity int, userID string) (domain.Booking, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var booking domain.Booking
	err := s.store.WithTx(txCtx, func(ctx context.Context) error {
		tier, err := s.store.GetTierByName(ctx, name)
		if err != nil {
			return err
		}

		available, err := s.store.LockInventory(ctx, tier.ID)
		if err != nil {
			return err
		}
		if available < quantity {
			return domain.ErrInsufficientInventory
		}

		bookingID := uuid.NewString()
		booking = domain.Booking{
			ID:        bookingID,
			UserID:    userID,
			Status:    domain.BookingStatusConfirmed,
			CreatedAt: s.clock.Now(),
			Items: []domain.BookingItem{{
				ID:        uuid.NewString(),
				BookingID: bookingID,
				TierID:    tier.ID,
				TierName:  tier.Name,
				Quantity:  quantity,
				Price:     tier.Price,
			}},
		}
		if _, err := s.store.CreateBooking(ctx, booking); err != nil {
			return err
		}
		return s.store.DecrementInventory(ctx, tier.ID, quantity)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransactionConflict) {
			err = fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
		}
		return domain.Booking{}, err
	}
	return booking, nil
}

// afterCommit runs once the booking is durable. Failures are only logged.
func (s *BookingService) afterCommit(ctx context.Context, booking domain.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	if err := s.publish(ctx, kafka.EventBookingConfirmed, booking); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("booking_id", booking.ID).Warn("failed to publish booking event")
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if id == "" {
		return nil, domain.ErrBookingNotFound
	}
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
	}
	for _, item := range booking.Items {
		event.Items = append(event.Items, kafka.BookingEventItem{
			Tier:     string(item.TierName),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func toResult(b domain.Booking) *BookingResult {
	result := &BookingResult{BookingID: b.ID, Status: b.Status}
	for _, item := range b.Items {
		result.Items = append(result.Items, ResultItem{Tier: item.TierName, Quantity: item.Quantity, Price: item.Price})
	}
	return result
}

var _ BookingUseCase = (*BookingService)(nil)
