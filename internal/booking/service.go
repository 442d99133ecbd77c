package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/youneed/marketplace-api/internal/config"
	redisclient "github.com/youneed/marketplace-api/internal/redis"
)

const (
	AuditUserRegistered = "USER_REGISTERED"
	AuditOrderCreated   = "ORDER_CREATED"
	AuditOrderStatus    = "ORDER_STATUS_CHANGED"
	AuditHoursUpdated   = "OPENING_HOURS_UPDATED"
	AuditServiceCreated = "SERVICE_CREATED"
	AuditServiceUpdated = "SERVICE_UPDATED"
	AuditServiceDeleted = "SERVICE_DELETED"
)

var (
	ErrEndBeforeStart      = errors.New("end must be after start")
	ErrScheduleConflict    = errors.New("time range overlaps an accepted order")
	ErrProviderClosed      = errors.New("provider is closed on that weekday")
	ErrOutsideOpeningHours = errors.New("start time outside provider opening hours")
	ErrProviderBusy        = errors.New("provider is being booked, please retry")
	ErrNotClient           = errors.New("actor is not a client")
	ErrNotProvider         = errors.New("target user is not a provider")
	ErrForbidden           = errors.New("operation not permitted for this actor")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRole         = errors.New("role must be client or provider")
	ErrInvalidHours        = errors.New("invalid opening hours")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    *logrus.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// Accounts

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     Role
}

func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Role != RoleClient && in.Role != RoleProvider {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &user.ID, AuditUserRegistered, "user", &user.ID, map[string]any{
		"email": user.Email,
		"role":  string(user.Role),
	})

	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Orders

type CreateOrderInput struct {
	ClientID    int64
	ProviderID  int64
	ServiceID   *int64
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       *time.Time
}

// CreateOrder books a pending order for a client with a provider. The
// opening-hours gate and the conflict check run inside a per-provider
// distributed lock, so two concurrent requests for overlapping slots cannot
// both pass the check and both insert.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	client, err := s.repo.GetUserByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.Role != RoleClient {
		return nil, ErrNotClient
	}

	provider, err := s.repo.GetUserByID(ctx, in.ProviderID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotProvider
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}
	if provider.Role != RoleProvider {
		return nil, ErrNotProvider
	}

	if in.ServiceID != nil {
		svc, err := s.repo.GetServiceByID(ctx, *in.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("load service: %w", err)
		}
		if svc.ProviderID != provider.ID {
			return nil, ErrServiceNotFound
		}
	}

	if in.EndAt != nil && !in.EndAt.After(in.StartAt) {
		return nil, ErrEndBeforeStart
	}

	var created *Order

	err = s.locker.WithProviderLock(ctx, provider.ID, func(lockCtx context.Context) error {
		if err := s.checkOpeningHours(lockCtx, provider.ID, in.StartAt); err != nil {
			return err
		}

		// Closed-interval overlap: a missing end collapses to the start.
		end := in.StartAt
		if in.EndAt != nil {
			end = *in.EndAt
		}
		conflicts, err := s.repo.ListAcceptedOverlapping(lockCtx, provider.ID, in.StartAt, end)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrScheduleConflict
		}

		order, err := s.repo.CreateOrder(lockCtx, Order{
			ClientID:    client.ID,
			ProviderID:  provider.ID,
			ServiceID:   in.ServiceID,
			Title:       in.Title,
			Description: in.Description,
			StartAt:     in.StartAt,
			EndAt:       in.EndAt,
			Status:      StatusPending,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		created = order
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	s.notify(ctx, client.ID, "Zlecenie utworzone",
		fmt.Sprintf("Twoje zlecenie %q oczekuje na akceptację usługodawcy.", created.Title))
	s.notify(ctx, provider.ID, "Nowe zlecenie",
		fmt.Sprintf("Otrzymano nowe zlecenie %q na %s.", created.Title, created.StartAt.Format("2006-01-02 15:04")))
	s.audit(ctx, &client.ID, AuditOrderCreated, "order", &created.ID, map[string]any{
		"provider_id": provider.ID,
		"start_at":    created.StartAt,
	})

	return created, nil
}

// checkOpeningHours applies the weekday gate to the order start. A weekday
// with no configured row imposes no restriction (open by default); this
// mirrors the legacy behaviour on purpose, see DESIGN.md.
func (s *Service) checkOpeningHours(ctx context.Context, providerID int64, startAt time.Time) error {
	hours, err := s.repo.GetOpeningHours(ctx, providerID, startAt.Weekday())
	if err != nil {
		if errors.Is(err, ErrHoursNotConfigured) {
			return nil
		}
		return fmt.Errorf("load opening hours: %w", err)
	}

	if !hours.IsOpen {
		return ErrProviderClosed
	}

	ok, err := withinWindow(*hours, startAt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOutsideOpeningHours
	}
	return nil
}

// UpdateOrderStatus moves an order through the lifecycle table. The actor's
// relation to the order (its provider or its client) together with the target
// status decides whether the change is allowed at all; the current status
// decides whether it is allowed now.
func (s *Service) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, target OrderStatus) (*Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	var relation actorRelation
	switch actorID {
	case order.ProviderID:
		relation = relationProvider
	case order.ClientID:
		relation = relationClient
	default:
		return nil, ErrForbidden
	}

	if _, ok := allowedFrom(relation, target); !ok {
		return nil, ErrForbidden
	}
	if !canTransition(relation, target, order.Status) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID, order.Status, target)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// Lost a race with another transition.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	statusLabel := map[OrderStatus]string{
		StatusAccepted:  "zaakceptowane",
		StatusCancelled: "anulowane",
	}[target]

	s.notify(ctx, updated.ClientID, "Zmiana statusu zlecenia",
		fmt.Sprintf("Zlecenie %q zostało %s.", updated.Title, statusLabel))
	s.notify(ctx, updated.ProviderID, "Zmiana statusu zlecenia",
		fmt.Sprintf("Zlecenie %q zostało %s.", updated.Title, statusLabel))
	s.audit(ctx, &actorID, AuditOrderStatus, "order", &updated.ID, map[string]any{
		"from": string(order.Status),
		"to":   string(target),
	})

	return updated, nil
}

func (s *Service) GetOrder(ctx context.Context, actorID int64, actorRole Role, orderID int64) (*Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorRole != RoleAdmin && actorID != order.ClientID && actorID != order.ProviderID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrdersForActor returns the actor's own orders: a provider sees orders
// addressed to it, a client sees orders it placed, an admin sees everything.
func (s *Service) ListOrdersForActor(ctx context.Context, actorID int64, actorRole Role, limit, offset int) ([]Order, int64, error) {
	limit, offset = clampPage(limit, offset)

	switch actorRole {
	case RoleProvider:
		return s.repo.ListOrdersByProvider(ctx, actorID, limit, offset)
	case RoleAdmin:
		return s.repo.ListOrders(ctx, limit, offset)
	default:
		return s.repo.ListOrdersByClient(ctx, actorID, limit, offset)
	}
}

// ListProviderAcceptedOrders is the public schedule of a provider.
func (s *Service) ListProviderAcceptedOrders(ctx context.Context, providerID int64) ([]Order, error) {
	provider, err := s.repo.GetUserByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotProvider
		}
		return nil, err
	}
	if provider.Role != RoleProvider {
		return nil, ErrNotProvider
	}
	return s.repo.ListAcceptedByProvider(ctx, providerID)
}

// Opening hours

func (s *Service) ListOpeningHours(ctx context.Context, providerID int64) ([]OpeningHours, error) {
	return s.repo.ListOpeningHours(ctx, providerID)
}

// SetOpeningHours replaces the provider's weekly windows and notifies
// subscribed clients about the change.
func (s *Service) SetOpeningHours(ctx context.Context, providerID int64, rows []OpeningHours) error {
	seen := make(map[time.Weekday]bool, len(rows))
	for _, row := range rows {
		if row.DayOfWeek < time.Sunday || row.DayOfWeek > time.Saturday {
			return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidHours, row.DayOfWeek)
		}
		if seen[row.DayOfWeek] {
			return fmt.Errorf("%w: duplicate day_of_week %d", ErrInvalidHours, row.DayOfWeek)
		}
		seen[row.DayOfWeek] = true

		if !row.IsOpen {
			continue
		}
		open, err := parseClock(row.OpenTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHours, err)
		}
		close, err := parseClock(row.CloseTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHours, err)
		}
		if close <= open {
			return fmt.Errorf("%w: close_time must be after open_time", ErrInvalidHours)
		}
	}

	if err := s.repo.UpsertOpeningHours(ctx, providerID, rows); err != nil {
		return fmt.Errorf("upsert opening hours: %w", err)
	}

	s.audit(ctx, &providerID, AuditHoursUpdated, "opening_hours", nil, map[string]any{
		"provider_id": providerID,
		"days":        len(rows),
	})

	subscribers, err := s.repo.ListSubscriberIDs(ctx, providerID)
	if err != nil {
		s.log.WithError(err).WithField("provider_id", providerID).
			Warn("could not load subscribers for opening hours change")
		return nil
	}
	for _, userID := range subscribers {
		s.notify(ctx, userID, "Zmiana godzin otwarcia",
			"Obserwowany usługodawca zmienił godziny otwarcia.")
	}

	return nil
}

// Provider services

type ServiceInput struct {
	Name        string
	Description *string
	PriceCents  int64
	DurationMin int
}

func (s *Service) CreateProviderService(ctx context.Context, providerID int64, in ServiceInput) (*ProviderService, error) {
	created, err := s.repo.CreateService(ctx, ProviderService{
		ProviderID:  providerID,
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		DurationMin: in.DurationMin,
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &providerID, AuditServiceCreated, "service", &created.ID, map[string]any{"name": created.Name})
	return created, nil
}

func (s *Service) UpdateProviderService(ctx context.Context, providerID, serviceID int64, in ServiceInput) (*ProviderService, error) {
	existing, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if existing.ProviderID != providerID {
		return nil, ErrForbidden
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.PriceCents = in.PriceCents
	existing.DurationMin = in.DurationMin

	updated, err := s.repo.UpdateService(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &providerID, AuditServiceUpdated, "service", &updated.ID, map[string]any{"name": updated.Name})
	return updated, nil
}

func (s *Service) DeleteProviderService(ctx context.Context, providerID, serviceID int64) error {
	existing, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if existing.ProviderID != providerID {
		return ErrForbidden
	}
	if err := s.repo.DeleteService(ctx, serviceID); err != nil {
		return err
	}
	s.audit(ctx, &providerID, AuditServiceDeleted, "service", &serviceID, nil)
	return nil
}

func (s *Service) ListProviderServices(ctx context.Context, providerID int64) ([]ProviderService, error) {
	return s.repo.ListServicesByProvider(ctx, providerID)
}

// Notifications

func (s *Service) ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListNotificationsByUser(ctx, userID, limit, offset)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id, userID)
}

// DeliverPendingNotifications drains a batch of undelivered notifications.
// Delivery itself is a logged stub; real channels (email, SMS) plug in here.
func (s *Service) DeliverPendingNotifications(ctx context.Context) (int, error) {
	pending, err := s.repo.FindUndeliveredNotifications(ctx, s.cfg.NotifyBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find undelivered notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		s.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
			"title":           n.Title,
		}).Info("delivering notification")

		if err := s.repo.MarkNotificationDelivered(ctx, n.ID); err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID).
				Error("failed to mark notification delivered")
			continue
		}
		delivered++
	}

	return delivered, nil
}

// Subscriptions

func (s *Service) Subscribe(ctx context.Context, clientID, providerID int64) (*Subscription, error) {
	provider, err := s.repo.GetUserByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotProvider
		}
		return nil, err
	}
	if provider.Role != RoleProvider {
		return nil, ErrNotProvider
	}
	return s.repo.CreateSubscription(ctx, clientID, providerID)
}

func (s *Service) Unsubscribe(ctx context.Context, clientID, id int64) error {
	return s.repo.DeleteSubscription(ctx, id, clientID)
}

func (s *Service) ListSubscriptions(ctx context.Context, clientID int64) ([]Subscription, error) {
	return s.repo.ListSubscriptionsByClient(ctx, clientID)
}

// Admin

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListUsers(ctx, limit, offset)
}

func (s *Service) ListAuditLog(ctx context.Context, limit, offset int) ([]AuditEntry, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAudit(ctx, limit, offset)
}

// Side channels: best effort, failures are logged and never fail the parent
// request.

func (s *Service) notify(ctx context.Context, userID int64, title, body string) {
	err := s.repo.InsertNotification(ctx, Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
		}).Error("failed to insert notification")
	}
}

func (s *Service) audit(ctx context.Context, actorID *int64, action, entity string, entityID *int64, detail map[string]any) {
	var data []byte
	if detail != nil {
		var err error
		data, err = json.Marshal(detail)
		if err != nil {
			s.log.WithError(err).WithField("action", action).Error("failed to marshal audit detail")
			data = nil
		}
	}

	err := s.repo.InsertAudit(ctx, AuditEntry{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   data,
	})
	if err != nil {
		s.log.WithError(err).WithField("action", action).Error("failed to insert audit entry")
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
