package api

import (
	"encoding/json"
	"net/http"

	"github.com/youneed/marketplace-api/internal/booking"
)

// Notifications, subscriptions and admin views.

func listNotificationsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())
		limit, offset := pageParams(r)

		notifications, total, err := svc.ListNotifications(r.Context(), identity.UserID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]NotificationResponse, 0, len(notifications))
		for _, n := range notifications {
			items = append(items, NotificationResponse{
				ID:        n.ID,
				Title:     n.Title,
				Body:      n.Body,
				Read:      n.Read,
				CreatedAt: n.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, NotificationListResponse{Items: items, Total: total})
	}
}

func markNotificationReadHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_notification_id", "Nieprawidłowy identyfikator powiadomienia")
			return
		}

		if err := svc.MarkNotificationRead(r.Context(), identity.UserID, id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listSubscriptionsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		subs, err := svc.ListSubscriptions(r.Context(), identity.UserID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]SubscriptionResponse, 0, len(subs))
		for _, sub := range subs {
			items = append(items, SubscriptionResponse{
				ID:         sub.ID,
				ProviderID: sub.ProviderID,
				CreatedAt:  sub.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func subscribeHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		var req SubscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		sub, err := svc.Subscribe(r.Context(), identity.UserID, req.ProviderID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SubscriptionResponse{
			ID:         sub.ID,
			ProviderID: sub.ProviderID,
			CreatedAt:  sub.CreatedAt,
		})
	}
}

func unsubscribeHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_subscription_id", "Nieprawidłowy identyfikator subskrypcji")
			return
		}

		if err := svc.Unsubscribe(r.Context(), identity.UserID, id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func adminListUsersHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)

		users, total, err := svc.ListUsers(r.Context(), limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]UserResponse, 0, len(users))
		for i := range users {
			items = append(items, toUserResponse(&users[i]))
		}
		writeJSON(w, http.StatusOK, UserListResponse{Items: items, Total: total})
	}
}

func adminListAuditHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)

		entries, total, err := svc.ListAuditLog(r.Context(), limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]AuditEntryResponse, 0, len(entries))
		for _, e := range entries {
			items = append(items, AuditEntryResponse{
				ID:        e.ID,
				ActorID:   e.ActorID,
				Action:    e.Action,
				Entity:    e.Entity,
				EntityID:  e.EntityID,
				Detail:    string(e.Detail),
				CreatedAt: e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, AuditListResponse{Items: items, Total: total})
	}
}
