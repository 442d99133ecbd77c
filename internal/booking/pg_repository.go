package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var phone *string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&phone,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Phone = phone
	return &u, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var serviceID *int64
	var description *string
	var endAt *time.Time

	err := row.Scan(
		&o.ID,
		&o.ClientID,
		&o.ProviderID,
		&serviceID,
		&o.Title,
		&description,
		&o.StartAt,
		&endAt,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	o.ServiceID = serviceID
	o.Description = description
	o.EndAt = endAt
	return &o, nil
}

func scanHours(row pgx.Row) (*OpeningHours, error) {
	var h OpeningHours
	var day int

	err := row.Scan(
		&h.ID,
		&h.ProviderID,
		&day,
		&h.IsOpen,
		&h.OpenTime,
		&h.CloseTime,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoursNotConfigured
		}
		return nil, err
	}

	h.DayOfWeek = time.Weekday(day)
	return &h, nil
}

func scanService(row pgx.Row) (*ProviderService, error) {
	var s ProviderService
	var description *string

	err := row.Scan(
		&s.ID,
		&s.ProviderID,
		&s.Name,
		&description,
		&s.PriceCents,
		&s.DurationMin,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	s.Description = description
	return &s, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Body,
		&n.Read,
		&n.Delivered,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	return &n, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()

	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Users

func (r *PgRepository) CreateUser(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, email, password_hash, name, phone, role, created_at, updated_at
	`, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *u)
	}
	return result, total, rows.Err()
}

// Orders

const orderColumns = `id, client_id, provider_id, service_id, title, description, start_at, end_at, status, created_at, updated_at`

func (r *PgRepository) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO orders (client_id, provider_id, service_id, title, description, start_at, end_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+orderColumns+`
	`, o.ClientID, o.ProviderID, o.ServiceID, o.Title, o.Description, o.StartAt, o.EndAt, o.Status)

	return scanOrder(row)
}

func (r *PgRepository) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	return scanOrder(row)
}

func (r *PgRepository) UpdateOrderStatus(ctx context.Context, id int64, from, to OrderStatus) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+orderColumns+`
	`, id, to, from)

	return scanOrder(row)
}

func (r *PgRepository) ListOrdersByClient(ctx context.Context, clientID int64, limit, offset int) ([]Order, int64, error) {
	return r.listOrdersWhere(ctx, `client_id = $1`, clientID, limit, offset)
}

func (r *PgRepository) ListOrdersByProvider(ctx context.Context, providerID int64, limit, offset int) ([]Order, int64, error) {
	return r.listOrdersWhere(ctx, `provider_id = $1`, providerID, limit, offset)
}

func (r *PgRepository) listOrdersWhere(ctx context.Context, cond string, ownerID int64, limit, offset int) ([]Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+cond, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+cond+`
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	result, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PgRepository) ListOrders(ctx context.Context, limit, offset int) ([]Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY start_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	result, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PgRepository) ListAcceptedByProvider(ctx context.Context, providerID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE provider_id = $1 AND status = 'accepted'
		ORDER BY start_at
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *PgRepository) ListAcceptedOverlapping(ctx context.Context, providerID int64, start, end time.Time) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE provider_id = $1
		  AND status = 'accepted'
		  AND start_at <= $3
		  AND COALESCE(end_at, start_at) >= $2
	`, providerID, start, end)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// Opening hours

func (r *PgRepository) GetOpeningHours(ctx context.Context, providerID int64, day time.Weekday) (*OpeningHours, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, day_of_week, is_open, open_time, close_time, created_at, updated_at
		FROM opening_hours
		WHERE provider_id = $1 AND day_of_week = $2
	`, providerID, int(day))
	return scanHours(row)
}

func (r *PgRepository) ListOpeningHours(ctx context.Context, providerID int64) ([]OpeningHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, day_of_week, is_open, open_time, close_time, created_at, updated_at
		FROM opening_hours
		WHERE provider_id = $1
		ORDER BY day_of_week
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OpeningHours
	for rows.Next() {
		h, err := scanHours(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpsertOpeningHours(ctx context.Context, providerID int64, hours []OpeningHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range hours {
		_, err := tx.Exec(ctx, `
			INSERT INTO opening_hours (provider_id, day_of_week, is_open, open_time, close_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (provider_id, day_of_week)
			DO UPDATE SET is_open = EXCLUDED.is_open,
			              open_time = EXCLUDED.open_time,
			              close_time = EXCLUDED.close_time,
			              updated_at = now()
		`, providerID, int(h.DayOfWeek), h.IsOpen, h.OpenTime, h.CloseTime)
		if err != nil {
			return fmt.Errorf("upsert opening hours day %d: %w", h.DayOfWeek, err)
		}
	}

	return tx.Commit(ctx)
}

// Provider services

const serviceColumns = `id, provider_id, name, description, price_cents, duration_min, created_at, updated_at`

func (r *PgRepository) CreateService(ctx context.Context, s ProviderService) (*ProviderService, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (provider_id, name, description, price_cents, duration_min, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+serviceColumns+`
	`, s.ProviderID, s.Name, s.Description, s.PriceCents, s.DurationMin)
	return scanService(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id int64) (*ProviderService, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) UpdateService(ctx context.Context, s ProviderService) (*ProviderService, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    price_cents = $4,
		    duration_min = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns+`
	`, s.ID, s.Name, s.Description, s.PriceCents, s.DurationMin)
	return scanService(row)
}

func (r *PgRepository) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) ListServicesByProvider(ctx context.Context, providerID int64) ([]ProviderService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE provider_id = $1
		ORDER BY id
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProviderService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// Notifications

func (r *PgRepository) InsertNotification(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (user_id, title, body, read, delivered, created_at)
		VALUES ($1, $2, $3, false, false, now())
	`, n.UserID, n.Title, n.Body)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgRepository) ListNotificationsByUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, body, read, delivered, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *n)
	}
	return result, total, rows.Err()
}

func (r *PgRepository) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PgRepository) FindUndeliveredNotifications(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, body, read, delivered, created_at
		FROM notifications
		WHERE delivered = false
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkNotificationDelivered(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET delivered = true
		WHERE id = $1
	`, id)
	return err
}

// Audit log

func (r *PgRepository) InsertAudit(ctx context.Context, e AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, e.ActorID, e.Action, e.Entity, e.EntityID, e.Detail)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *PgRepository) ListAudit(ctx context.Context, limit, offset int) ([]AuditEntry, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, entity, entity_id, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

// Subscriptions

func (r *PgRepository) CreateSubscription(ctx context.Context, clientID, providerID int64) (*Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (client_id, provider_id, created_at)
		VALUES ($1, $2, now())
		RETURNING id, client_id, provider_id, created_at
	`, clientID, providerID).Scan(&sub.ID, &sub.ClientID, &sub.ProviderID, &sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSubscription
		}
		return nil, err
	}
	return &sub, nil
}

func (r *PgRepository) DeleteSubscription(ctx context.Context, id, clientID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM subscriptions
		WHERE id = $1 AND client_id = $2
	`, id, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *PgRepository) ListSubscriptionsByClient(ctx context.Context, clientID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, provider_id, created_at
		FROM subscriptions
		WHERE client_id = $1
		ORDER BY id
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.ClientID, &sub.ProviderID, &sub.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListSubscriberIDs(ctx context.Context, providerID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT client_id
		FROM subscriptions
		WHERE provider_id = $1
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
