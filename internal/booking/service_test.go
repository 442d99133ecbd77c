package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/youneed/marketplace-api/internal/config"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	lastID        int64
	users         map[int64]*User
	orders        map[int64]*Order
	hours         map[int64]map[time.Weekday]*OpeningHours
	services      map[int64]*ProviderService
	notifications []Notification
	audits        []AuditEntry
	subs          map[int64]*Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*User),
		orders:   make(map[int64]*Order),
		hours:    make(map[int64]map[time.Weekday]*OpeningHours),
		services: make(map[int64]*ProviderService),
		subs:     make(map[int64]*Subscription),
	}
}

func (f *fakeRepo) nextID() int64 {
	f.lastID++
	return f.lastID
}

func (f *fakeRepo) addUser(role Role) *User {
	u := &User{ID: f.nextID(), Email: string(role) + "@example.com", Name: "Test", Role: role}
	f.users[u.ID] = u
	return u
}

func (f *fakeRepo) addHours(providerID int64, day time.Weekday, open bool, from, to string) {
	if f.hours[providerID] == nil {
		f.hours[providerID] = make(map[time.Weekday]*OpeningHours)
	}
	f.hours[providerID][day] = &OpeningHours{
		ID: f.nextID(), ProviderID: providerID, DayOfWeek: day,
		IsOpen: open, OpenTime: from, CloseTime: to,
	}
}

func (f *fakeRepo) CreateUser(ctx context.Context, u User) (*User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, ErrDuplicateEmail
		}
	}
	u.ID = f.nextID()
	f.users[u.ID] = &u
	return &u, nil
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	var result []User
	for _, u := range f.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	o.ID = f.nextID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = &o
	return &o, nil
}

func (f *fakeRepo) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeRepo) UpdateOrderStatus(ctx context.Context, id int64, from, to OrderStatus) (*Order, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return nil, ErrOrderNotFound
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return o, nil
}

func (f *fakeRepo) ListOrdersByClient(ctx context.Context, clientID int64, limit, offset int) ([]Order, int64, error) {
	var result []Order
	for _, o := range f.orders {
		if o.ClientID == clientID {
			result = append(result, *o)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRepo) ListOrdersByProvider(ctx context.Context, providerID int64, limit, offset int) ([]Order, int64, error) {
	var result []Order
	for _, o := range f.orders {
		if o.ProviderID == providerID {
			result = append(result, *o)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, limit, offset int) ([]Order, int64, error) {
	var result []Order
	for _, o := range f.orders {
		result = append(result, *o)
	}
	return result, int64(len(result)), nil
}

func (f *fakeRepo) ListAcceptedByProvider(ctx context.Context, providerID int64) ([]Order, error) {
	var result []Order
	for _, o := range f.orders {
		if o.ProviderID == providerID && o.Status == StatusAccepted {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListAcceptedOverlapping(ctx context.Context, providerID int64, start, end time.Time) ([]Order, error) {
	var result []Order
	for _, o := range f.orders {
		if o.ProviderID != providerID || o.Status != StatusAccepted {
			continue
		}
		existingEnd := o.StartAt
		if o.EndAt != nil {
			existingEnd = *o.EndAt
		}
		if !o.StartAt.After(end) && !existingEnd.Before(start) {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (f *fakeRepo) GetOpeningHours(ctx context.Context, providerID int64, day time.Weekday) (*OpeningHours, error) {
	h, ok := f.hours[providerID][day]
	if !ok {
		return nil, ErrHoursNotConfigured
	}
	return h, nil
}

func (f *fakeRepo) ListOpeningHours(ctx context.Context, providerID int64) ([]OpeningHours, error) {
	var result []OpeningHours
	for _, h := range f.hours[providerID] {
		result = append(result, *h)
	}
	return result, nil
}

func (f *fakeRepo) UpsertOpeningHours(ctx context.Context, providerID int64, rows []OpeningHours) error {
	for _, h := range rows {
		f.addHours(providerID, h.DayOfWeek, h.IsOpen, h.OpenTime, h.CloseTime)
	}
	return nil
}

func (f *fakeRepo) CreateService(ctx context.Context, s ProviderService) (*ProviderService, error) {
	s.ID = f.nextID()
	f.services[s.ID] = &s
	return &s, nil
}

func (f *fakeRepo) GetServiceByID(ctx context.Context, id int64) (*ProviderService, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return s, nil
}

func (f *fakeRepo) UpdateService(ctx context.Context, s ProviderService) (*ProviderService, error) {
	if _, ok := f.services[s.ID]; !ok {
		return nil, ErrServiceNotFound
	}
	f.services[s.ID] = &s
	return &s, nil
}

func (f *fakeRepo) DeleteService(ctx context.Context, id int64) error {
	if _, ok := f.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(f.services, id)
	return nil
}

func (f *fakeRepo) ListServicesByProvider(ctx context.Context, providerID int64) ([]ProviderService, error) {
	var result []ProviderService
	for _, s := range f.services {
		if s.ProviderID == providerID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeRepo) InsertNotification(ctx context.Context, n Notification) error {
	n.ID = f.nextID()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) ListNotificationsByUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, error) {
	var result []Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRepo) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (f *fakeRepo) FindUndeliveredNotifications(ctx context.Context, limit int) ([]Notification, error) {
	var result []Notification
	for _, n := range f.notifications {
		if !n.Delivered {
			result = append(result, n)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeRepo) MarkNotificationDelivered(ctx context.Context, id int64) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Delivered = true
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) InsertAudit(ctx context.Context, e AuditEntry) error {
	e.ID = f.nextID()
	f.audits = append(f.audits, e)
	return nil
}

func (f *fakeRepo) ListAudit(ctx context.Context, limit, offset int) ([]AuditEntry, int64, error) {
	return f.audits, int64(len(f.audits)), nil
}

func (f *fakeRepo) CreateSubscription(ctx context.Context, clientID, providerID int64) (*Subscription, error) {
	for _, sub := range f.subs {
		if sub.ClientID == clientID && sub.ProviderID == providerID {
			return nil, ErrDuplicateSubscription
		}
	}
	sub := &Subscription{ID: f.nextID(), ClientID: clientID, ProviderID: providerID}
	f.subs[sub.ID] = sub
	return sub, nil
}

func (f *fakeRepo) DeleteSubscription(ctx context.Context, id, clientID int64) error {
	sub, ok := f.subs[id]
	if !ok || sub.ClientID != clientID {
		return ErrSubscriptionNotFound
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeRepo) ListSubscriptionsByClient(ctx context.Context, clientID int64) ([]Subscription, error) {
	var result []Subscription
	for _, sub := range f.subs {
		if sub.ClientID == clientID {
			result = append(result, *sub)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListSubscriberIDs(ctx context.Context, providerID int64) ([]int64, error) {
	var result []int64
	for _, sub := range f.subs {
		if sub.ProviderID == providerID {
			result = append(result, sub.ClientID)
		}
	}
	return result, nil
}

// passLocker runs the critical section without any real locking.
type passLocker struct{}

func (passLocker) WithProviderLock(ctx context.Context, providerID int64, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *fakeRepo) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(repo, passLocker{}, config.Config{NotifyBatchSize: 50}, log)
}

// 2025-06-02 is a Monday.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func tuesdayAt(hour, minute int) time.Time {
	return time.Date(2025, 6, 3, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func setupBooking(t *testing.T) (*fakeRepo, *Service, *User, *User) {
	t.Helper()
	repo := newFakeRepo()
	client := repo.addUser(RoleClient)
	provider := repo.addUser(RoleProvider)
	repo.addHours(provider.ID, time.Monday, true, "09:00", "17:00")
	return repo, newTestService(repo), client, provider
}

func createOrder(t *testing.T, svc *Service, clientID, providerID int64, start time.Time, end *time.Time) (*Order, error) {
	t.Helper()
	return svc.CreateOrder(context.Background(), CreateOrderInput{
		ClientID:   clientID,
		ProviderID: providerID,
		Title:      "Strzyżenie",
		StartAt:    start,
		EndAt:      end,
	})
}

func TestCreateOrderHappyPath(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)

	order, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(11, 0)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != StatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}

	if len(repo.notifications) != 2 {
		t.Fatalf("want 2 notifications (client and provider), got %d", len(repo.notifications))
	}
	if len(repo.audits) != 1 {
		t.Fatalf("want 1 audit entry, got %d", len(repo.audits))
	}
}

func TestCreateOrderOverlapRejected(t *testing.T) {
	_, svc, client, provider := setupBooking(t)

	existing, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(11, 0)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(context.Background(), provider.ID, existing.ID, StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err = createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 30), ptr(mondayAt(11, 30)))
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("want ErrScheduleConflict, got %v", err)
	}

	// Closed-interval policy: a request starting exactly at the accepted
	// order's end also conflicts.
	_, err = createOrder(t, svc, client.ID, provider.ID, mondayAt(11, 0), ptr(mondayAt(12, 0)))
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("touching boundary: want ErrScheduleConflict, got %v", err)
	}

	// One minute later is free.
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(11, 1), ptr(mondayAt(12, 0))); err != nil {
		t.Fatalf("non overlapping request rejected: %v", err)
	}
}

func TestCreateOrderPendingOrdersDoNotBlock(t *testing.T) {
	_, svc, client, provider := setupBooking(t)

	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(11, 0))); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	// Only accepted orders participate in the conflict check.
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 30), ptr(mondayAt(11, 30))); err != nil {
		t.Fatalf("pending order blocked creation: %v", err)
	}
}

func TestCreateOrderNullEndCollapsesToStart(t *testing.T) {
	_, svc, client, provider := setupBooking(t)

	existing, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(11, 0)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(context.Background(), provider.ID, existing.ID, StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 30), nil); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("point request inside accepted interval: want ErrScheduleConflict, got %v", err)
	}
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(9, 30), nil); err != nil {
		t.Fatalf("point request before accepted interval rejected: %v", err)
	}
}

func TestCreateOrderOpeningHoursGate(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)

	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(18, 0), nil); !errors.Is(err, ErrOutsideOpeningHours) {
		t.Fatalf("after close: want ErrOutsideOpeningHours, got %v", err)
	}
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(8, 59), nil); !errors.Is(err, ErrOutsideOpeningHours) {
		t.Fatalf("before open: want ErrOutsideOpeningHours, got %v", err)
	}

	// Boundaries are inclusive.
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(9, 0), nil); err != nil {
		t.Fatalf("open boundary rejected: %v", err)
	}
	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(17, 0), nil); err != nil {
		t.Fatalf("close boundary rejected: %v", err)
	}

	// No Tuesday row configured: open by default.
	if _, err := createOrder(t, svc, client.ID, provider.ID, tuesdayAt(3, 0), nil); err != nil {
		t.Fatalf("unconfigured weekday rejected: %v", err)
	}

	// A configured closed day rejects.
	repo.addHours(provider.ID, time.Tuesday, false, "09:00", "17:00")
	if _, err := createOrder(t, svc, client.ID, provider.ID, tuesdayAt(10, 0), nil); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("closed day: want ErrProviderClosed, got %v", err)
	}
}

func TestCreateOrderEndBeforeStart(t *testing.T) {
	_, svc, client, provider := setupBooking(t)

	_, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(10, 0)))
	if !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("equal end: want ErrEndBeforeStart, got %v", err)
	}

	_, err = createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), ptr(mondayAt(9, 0)))
	if !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("earlier end: want ErrEndBeforeStart, got %v", err)
	}
}

func TestCreateOrderRoleChecks(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)

	// Target must be a provider.
	otherClient := repo.addUser(RoleClient)
	if _, err := createOrder(t, svc, client.ID, otherClient.ID, mondayAt(10, 0), nil); !errors.Is(err, ErrNotProvider) {
		t.Fatalf("client target: want ErrNotProvider, got %v", err)
	}
	if _, err := createOrder(t, svc, client.ID, 9999, mondayAt(10, 0), nil); !errors.Is(err, ErrNotProvider) {
		t.Fatalf("missing target: want ErrNotProvider, got %v", err)
	}

	// Actor must be a client.
	if _, err := createOrder(t, svc, provider.ID, provider.ID, mondayAt(10, 0), nil); !errors.Is(err, ErrNotClient) {
		t.Fatalf("provider actor: want ErrNotClient, got %v", err)
	}
}

func TestUpdateOrderStatusMatrix(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)
	stranger := repo.addUser(RoleClient)

	// Each pending order gets its own slot so accepted ones never collide
	// with later creations.
	nextSlot := 0
	newPending := func() *Order {
		o, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			ClientID:   client.ID,
			ProviderID: provider.ID,
			Title:      "Naprawa",
			StartAt:    mondayAt(9+nextSlot, 0),
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		nextSlot++
		return o
	}

	// Provider accepts pending.
	o := newPending()
	updated, err := svc.UpdateOrderStatus(context.Background(), provider.ID, o.ID, StatusAccepted)
	if err != nil {
		t.Fatalf("provider accept: %v", err)
	}
	if updated.Status != StatusAccepted {
		t.Fatalf("status = %q, want accepted", updated.Status)
	}

	// Provider cannot re-accept; status stays put.
	if _, err := svc.UpdateOrderStatus(context.Background(), provider.ID, o.ID, StatusAccepted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-accept: want ErrInvalidTransition, got %v", err)
	}

	// Client cancels pending.
	o = newPending()
	if _, err := svc.UpdateOrderStatus(context.Background(), client.ID, o.ID, StatusCancelled); err != nil {
		t.Fatalf("client cancel: %v", err)
	}

	// Client may never accept, even their own order.
	o = newPending()
	if _, err := svc.UpdateOrderStatus(context.Background(), client.ID, o.ID, StatusAccepted); !errors.Is(err, ErrForbidden) {
		t.Fatalf("client accept: want ErrForbidden, got %v", err)
	}
	if got, _ := repo.GetOrderByID(context.Background(), o.ID); got.Status != StatusPending {
		t.Fatalf("status changed on rejected transition: %q", got.Status)
	}

	// Provider cancels pending.
	if _, err := svc.UpdateOrderStatus(context.Background(), provider.ID, o.ID, StatusCancelled); err != nil {
		t.Fatalf("provider cancel: %v", err)
	}

	// Unrelated actor is rejected outright.
	o = newPending()
	if _, err := svc.UpdateOrderStatus(context.Background(), stranger.ID, o.ID, StatusCancelled); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger: want ErrForbidden, got %v", err)
	}
}

func TestAcceptedOrdersNeverOverlapAfterCreationSequence(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)

	// Create and accept bookings over a morning, interleaved with rejected
	// overlapping attempts.
	slots := []struct {
		startHour, endHour int
	}{
		{9, 10},
		{11, 12},
		{13, 14},
	}
	for _, slot := range slots {
		o, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(slot.startHour, 0), ptr(mondayAt(slot.endHour, 0)))
		if err != nil {
			t.Fatalf("create %d-%d: %v", slot.startHour, slot.endHour, err)
		}
		if _, err := svc.UpdateOrderStatus(context.Background(), provider.ID, o.ID, StatusAccepted); err != nil {
			t.Fatalf("accept %d-%d: %v", slot.startHour, slot.endHour, err)
		}
		// Overlapping attempts after each acceptance must fail.
		if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(slot.startHour, 30), ptr(mondayAt(slot.endHour, 30))); !errors.Is(err, ErrScheduleConflict) {
			t.Fatalf("overlap with %d-%d accepted: got %v", slot.startHour, slot.endHour, err)
		}
	}

	accepted, err := repo.ListAcceptedByProvider(context.Background(), provider.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			aEnd, bEnd := a.StartAt, b.StartAt
			if a.EndAt != nil {
				aEnd = *a.EndAt
			}
			if b.EndAt != nil {
				bEnd = *b.EndAt
			}
			if !a.StartAt.After(bEnd) && !aEnd.Before(b.StartAt) {
				t.Fatalf("accepted orders %d and %d overlap", a.ID, b.ID)
			}
		}
	}
}

func TestSetOpeningHoursValidation(t *testing.T) {
	_, svc, _, provider := setupBooking(t)
	ctx := context.Background()

	err := svc.SetOpeningHours(ctx, provider.ID, []OpeningHours{
		{DayOfWeek: 9, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"},
	})
	if !errors.Is(err, ErrInvalidHours) {
		t.Fatalf("bad weekday: want ErrInvalidHours, got %v", err)
	}

	err = svc.SetOpeningHours(ctx, provider.ID, []OpeningHours{
		{DayOfWeek: time.Monday, IsOpen: true, OpenTime: "17:00", CloseTime: "09:00"},
	})
	if !errors.Is(err, ErrInvalidHours) {
		t.Fatalf("inverted window: want ErrInvalidHours, got %v", err)
	}

	// A closed day does not need valid clock strings.
	err = svc.SetOpeningHours(ctx, provider.ID, []OpeningHours{
		{DayOfWeek: time.Sunday, IsOpen: false},
	})
	if err != nil {
		t.Fatalf("closed day rejected: %v", err)
	}
}

func TestSetOpeningHoursNotifiesSubscribers(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, client.ID, provider.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	before := len(repo.notifications)
	err := svc.SetOpeningHours(ctx, provider.ID, []OpeningHours{
		{DayOfWeek: time.Monday, IsOpen: true, OpenTime: "08:00", CloseTime: "16:00"},
	})
	if err != nil {
		t.Fatalf("SetOpeningHours: %v", err)
	}
	if len(repo.notifications) != before+1 {
		t.Fatalf("want one subscriber notification, got %d", len(repo.notifications)-before)
	}
}

func TestDeliverPendingNotifications(t *testing.T) {
	repo, svc, client, provider := setupBooking(t)

	if _, err := createOrder(t, svc, client.ID, provider.ID, mondayAt(10, 0), nil); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	delivered, err := svc.DeliverPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("DeliverPendingNotifications: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	for _, n := range repo.notifications {
		if !n.Delivered {
			t.Fatalf("notification %d still undelivered", n.ID)
		}
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, RegisterInput{
		Email:    "anna@example.com",
		Password: "sekretne-haslo",
		Name:     "Anna",
		Role:     RoleClient,
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.PasswordHash == "sekretne-haslo" {
		t.Fatal("password stored in plain text")
	}

	if _, err := svc.Authenticate(ctx, "anna@example.com", "sekretne-haslo"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "anna@example.com", "zle-haslo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nieznany@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.RegisterUser(ctx, RegisterInput{Email: "a@b.c", Password: "x", Name: "X", Role: RoleAdmin}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("admin self-registration: want ErrInvalidRole, got %v", err)
	}
}
