package booking

import (
	"time"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusCancelled OrderStatus = "cancelled"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderService is a bookable offering of a provider (haircut, wiring fix).
type ProviderService struct {
	ID          int64
	ProviderID  int64
	Name        string
	Description *string
	PriceCents  int64
	DurationMin int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID          int64
	ClientID    int64
	ProviderID  int64
	ServiceID   *int64
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       *time.Time
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OpeningHours is one provider weekday window. DayOfWeek follows time.Weekday
// (Sunday = 0). Open and close times are "HH:MM" wall clock strings.
type OpeningHours struct {
	ID         int64
	ProviderID int64
	DayOfWeek  time.Weekday
	IsOpen     bool
	OpenTime   string
	CloseTime  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Body      string
	Read      bool
	Delivered bool
	CreatedAt time.Time
}

type AuditEntry struct {
	ID        int64
	ActorID   *int64
	Action    string
	Entity    string
	EntityID  *int64
	Detail    []byte
	CreatedAt time.Time
}

// Subscription lets a client follow a provider to be notified about
// availability changes.
type Subscription struct {
	ID         int64
	ClientID   int64
	ProviderID int64
	CreatedAt  time.Time
}
