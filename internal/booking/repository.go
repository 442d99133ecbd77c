package booking

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrServiceNotFound       = errors.New("service not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrHoursNotConfigured    = errors.New("opening hours not configured for weekday")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateSubscription = errors.New("subscription already exists")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error)

	// Orders
	CreateOrder(ctx context.Context, o Order) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to OrderStatus) (*Order, error)
	ListOrdersByClient(ctx context.Context, clientID int64, limit, offset int) ([]Order, int64, error)
	ListOrdersByProvider(ctx context.Context, providerID int64, limit, offset int) ([]Order, int64, error)
	ListOrders(ctx context.Context, limit, offset int) ([]Order, int64, error)
	ListAcceptedByProvider(ctx context.Context, providerID int64) ([]Order, error)

	// For conflict checks: accepted orders of the provider whose closed
	// interval overlaps [start, end].
	ListAcceptedOverlapping(ctx context.Context, providerID int64, start, end time.Time) ([]Order, error)

	// Opening hours
	GetOpeningHours(ctx context.Context, providerID int64, day time.Weekday) (*OpeningHours, error)
	ListOpeningHours(ctx context.Context, providerID int64) ([]OpeningHours, error)
	UpsertOpeningHours(ctx context.Context, providerID int64, rows []OpeningHours) error

	// Provider services
	CreateService(ctx context.Context, s ProviderService) (*ProviderService, error)
	GetServiceByID(ctx context.Context, id int64) (*ProviderService, error)
	UpdateService(ctx context.Context, s ProviderService) (*ProviderService, error)
	DeleteService(ctx context.Context, id int64) error
	ListServicesByProvider(ctx context.Context, providerID int64) ([]ProviderService, error)

	// Notification sink
	InsertNotification(ctx context.Context, n Notification) error
	ListNotificationsByUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
	FindUndeliveredNotifications(ctx context.Context, limit int) ([]Notification, error)
	MarkNotificationDelivered(ctx context.Context, id int64) error

	// Audit sink
	InsertAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, limit, offset int) ([]AuditEntry, int64, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, clientID, providerID int64) (*Subscription, error)
	DeleteSubscription(ctx context.Context, id, clientID int64) error
	ListSubscriptionsByClient(ctx context.Context, clientID int64) ([]Subscription, error)
	ListSubscriberIDs(ctx context.Context, providerID int64) ([]int64, error)
}
