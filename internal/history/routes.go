package history

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
)

// RegisterRoutes wires the transition history endpoint to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/history", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		filters := QueryFilters{
			DeviceID: r.URL.Query().Get("device_id"),
			Field:    r.URL.Query().Get("field"),
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				return apperrors.NewValidationError("limit must be a non-negative integer", nil)
			}
			filters.Limit = limit
		}
		if raw := r.URL.Query().Get("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				return apperrors.NewValidationError("offset must be a non-negative integer", nil)
			}
			filters.Offset = offset
		}

		transitions, _, hasMore, err := service.Query(filters)
		if err != nil {
			return apperrors.NewInternalError("Failed to load state history")
		}
		if transitions == nil {
			transitions = []Transition{}
		}
		return api.WriteList(w, "/v1/history", transitions, hasMore)
	}))
}
