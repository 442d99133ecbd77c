package api

import (
	"time"

	"github.com/youneed/marketplace-api/internal/booking"
)

// Field names are camelCase to match the wire format the frontend consumes.

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role     string  `json:"role" validate:"required,oneof=client provider"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CreateOrderRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartAt     time.Time  `json:"startAt" validate:"required"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	ProviderID  int64      `json:"providerId" validate:"required,gt=0"`
	ServiceID   *int64     `json:"serviceId,omitempty" validate:"omitempty,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted cancelled"`
}

type OrderResponse struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"clientId"`
	ProviderID  int64      `json:"providerId"`
	ServiceID   *int64     `json:"serviceId,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Total int64           `json:"total"`
}

type OpeningHoursDay struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"gte=0,lte=6"`
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
}

type SetOpeningHoursRequest struct {
	Days []OpeningHoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

type ServiceRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	PriceCents  int64   `json:"priceCents" validate:"gte=0"`
	DurationMin int     `json:"durationMin" validate:"gt=0"`
}

type ServiceResponse struct {
	ID          int64   `json:"id"`
	ProviderID  int64   `json:"providerId"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PriceCents  int64   `json:"priceCents"`
	DurationMin int     `json:"durationMin"`
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Total int64                  `json:"total"`
}

type SubscribeRequest struct {
	ProviderID int64 `json:"providerId" validate:"required,gt=0"`
}

type SubscriptionResponse struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AuditEntryResponse struct {
	ID        int64     `json:"id"`
	ActorID   *int64    `json:"actorId,omitempty"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  *int64    `json:"entityId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuditListResponse struct {
	Items []AuditEntryResponse `json:"items"`
	Total int64                `json:"total"`
}

type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int64          `json:"total"`
}

func toUserResponse(u *booking.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toOrderResponse(o *booking.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		ClientID:    o.ClientID,
		ProviderID:  o.ProviderID,
		ServiceID:   o.ServiceID,
		Title:       o.Title,
		Description: o.Description,
		StartAt:     o.StartAt,
		EndAt:       o.EndAt,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderList(orders []booking.Order, total int64) OrderListResponse {
	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return OrderListResponse{Items: items, Total: total}
}

func toServiceResponse(s *booking.ProviderService) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		ProviderID:  s.ProviderID,
		Name:        s.Name,
		Description: s.Description,
		PriceCents:  s.PriceCents,
		DurationMin: s.DurationMin,
	}
}
