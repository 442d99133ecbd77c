package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/youneed/marketplace-api/internal/auth"
	"github.com/youneed/marketplace-api/internal/booking"
	redisclient "github.com/youneed/marketplace-api/internal/redis"
)

func registerHandler(svc *booking.Service, tokens *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		user, err := svc.RegisterUser(r.Context(), booking.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Phone:    req.Phone,
			Role:     booking.Role(req.Role),
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		token, err := tokens.Issue(user.ID, string(user.Role), user.Email)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(user)})
	}
}

func loginHandler(svc *booking.Service, tokens *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		token, err := tokens.Issue(user.ID, string(user.Role), user.Email)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
	}
}

func createOrderHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		order, err := svc.CreateOrder(r.Context(), booking.CreateOrderInput{
			ClientID:    identity.UserID,
			ProviderID:  req.ProviderID,
			ServiceID:   req.ServiceID,
			Title:       req.Title,
			Description: req.Description,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

func listOrdersHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())
		limit, offset := pageParams(r)

		orders, total, err := svc.ListOrdersForActor(r.Context(), identity.UserID, identity.Role, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderList(orders, total))
	}
}

func getOrderHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "Nieprawidłowy identyfikator zlecenia")
			return
		}

		order, err := svc.GetOrder(r.Context(), identity.UserID, identity.Role, id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func updateOrderStatusHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "Nieprawidłowy identyfikator zlecenia")
			return
		}

		var req UpdateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		order, err := svc.UpdateOrderStatus(r.Context(), identity.UserID, id, booking.OrderStatus(req.Status))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func providerOrdersHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := pathID(r, "providerID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "Nieprawidłowy identyfikator usługodawcy")
			return
		}

		orders, err := svc.ListProviderAcceptedOrders(r.Context(), providerID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderList(orders, int64(len(orders))))
	}
}

// handleBookingError maps domain errors onto the HTTP taxonomy: 400 for
// validation and scheduling conflicts, 401/403 for identity problems, 404 for
// lookups, 409 for lock contention, 500 otherwise.
func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Nieprawidłowy email lub hasło")
	case errors.Is(err, booking.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "email_taken", "Konto z tym adresem email już istnieje")
	case errors.Is(err, booking.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", "Rola musi być jedną z: client, provider")
	case errors.Is(err, booking.ErrNotClient):
		writeError(w, http.StatusForbidden, "not_a_client", "Tylko klient może utworzyć zlecenie")
	case errors.Is(err, booking.ErrNotProvider):
		writeError(w, http.StatusNotFound, "provider_not_found", "Nie znaleziono usługodawcy")
	case errors.Is(err, booking.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "Nie znaleziono użytkownika")
	case errors.Is(err, booking.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "Nie znaleziono zlecenia")
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", "Nie znaleziono usługi")
	case errors.Is(err, booking.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "subscription_not_found", "Nie znaleziono subskrypcji")
	case errors.Is(err, booking.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification_not_found", "Nie znaleziono powiadomienia")
	case errors.Is(err, booking.ErrEndBeforeStart):
		writeError(w, http.StatusBadRequest, "invalid_time_range", "Data zakończenia musi być późniejsza niż data rozpoczęcia")
	case errors.Is(err, booking.ErrScheduleConflict):
		writeError(w, http.StatusBadRequest, "schedule_conflict", "Wybrany termin koliduje z innym zaakceptowanym zleceniem")
	case errors.Is(err, booking.ErrProviderClosed):
		writeError(w, http.StatusBadRequest, "provider_closed", "Usługodawca jest nieczynny w tym dniu")
	case errors.Is(err, booking.ErrOutsideOpeningHours):
		writeError(w, http.StatusBadRequest, "outside_opening_hours", "Wybrana godzina jest poza godzinami otwarcia usługodawcy")
	case errors.Is(err, booking.ErrInvalidHours), errors.Is(err, booking.ErrMalformedClockTime):
		writeError(w, http.StatusBadRequest, "invalid_opening_hours", "Nieprawidłowe godziny otwarcia")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_status_transition", "Niedozwolona zmiana statusu zlecenia")
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "Brak uprawnień do wykonania tej operacji")
	case errors.Is(err, booking.ErrDuplicateSubscription):
		writeError(w, http.StatusBadRequest, "already_subscribed", "Już obserwujesz tego usługodawcę")
	case errors.Is(err, booking.ErrProviderBusy), errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "provider_being_booked", "Termin jest właśnie rezerwowany, spróbuj ponownie za chwilę")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Wystąpił błąd serwera")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
