package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/youneed/marketplace-api/internal/booking"
)

// Provider self-service: opening hours and offered services.

func providerOpeningHoursHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := pathID(r, "providerID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "Nieprawidłowy identyfikator usługodawcy")
			return
		}

		hours, err := svc.ListOpeningHours(r.Context(), providerID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		days := make([]OpeningHoursDay, 0, len(hours))
		for _, h := range hours {
			days = append(days, OpeningHoursDay{
				DayOfWeek: int(h.DayOfWeek),
				IsOpen:    h.IsOpen,
				OpenTime:  h.OpenTime,
				CloseTime: h.CloseTime,
			})
		}
		writeJSON(w, http.StatusOK, SetOpeningHoursRequest{Days: days})
	}
}

func setOpeningHoursHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		var req SetOpeningHoursRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		rows := make([]booking.OpeningHours, 0, len(req.Days))
		for _, d := range req.Days {
			rows = append(rows, booking.OpeningHours{
				ProviderID: identity.UserID,
				DayOfWeek:  time.Weekday(d.DayOfWeek),
				IsOpen:     d.IsOpen,
				OpenTime:   d.OpenTime,
				CloseTime:  d.CloseTime,
			})
		}

		if err := svc.SetOpeningHours(r.Context(), identity.UserID, rows); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func providerServicesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := pathID(r, "providerID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "Nieprawidłowy identyfikator usługodawcy")
			return
		}

		services, err := svc.ListProviderServices(r.Context(), providerID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]ServiceResponse, 0, len(services))
		for i := range services {
			items = append(items, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func listOwnServicesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		services, err := svc.ListProviderServices(r.Context(), identity.UserID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		items := make([]ServiceResponse, 0, len(services))
		for i := range services {
			items = append(items, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func createServiceHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		created, err := svc.CreateProviderService(r.Context(), identity.UserID, booking.ServiceInput{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			DurationMin: req.DurationMin,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(created))
	}
}

func updateServiceHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "Nieprawidłowy identyfikator usługi")
			return
		}

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Nie można odczytać treści żądania")
			return
		}
		if fields := checkStruct(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		updated, err := svc.UpdateProviderService(r.Context(), identity.UserID, id, booking.ServiceInput{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			DurationMin: req.DurationMin,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(updated))
	}
}

func deleteServiceHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "Nieprawidłowy identyfikator usługi")
			return
		}

		if err := svc.DeleteProviderService(r.Context(), identity.UserID, id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
