package registry

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
	"github.com/mmiyara/naim-hub-go/internal/entities"
	"github.com/mmiyara/naim-hub-go/internal/naim"
)

// RegisterEntityRoutes wires entity listing and command execution to the
// router. Entities live here because the registry owns the entity index.
func RegisterEntityRoutes(router chi.Router, reg *Registry) {
	router.Method(http.MethodGet, "/v1/entities", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		all := reg.Entities()
		formatted := make([]map[string]any, 0, len(all))
		for _, ent := range all {
			formatted = append(formatted, reg.formatEntity(ent))
		}
		return api.WriteList(w, "/v1/entities", formatted, false)
	}))

	router.Method(http.MethodGet, "/v1/entities/{entity_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entityID := chi.URLParam(r, "entity_id")
		ent, ok := reg.Entity(entityID)
		if !ok {
			return apperrors.NewAppError(apperrors.ErrorCodeEntityNotFound, "Entity not found: "+entityID, 404, nil)
		}
		return api.WriteResource(w, http.StatusOK, reg.formatEntity(ent))
	}))

	router.Method(http.MethodPost, "/v1/entities/{entity_id}/command", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entityID := chi.URLParam(r, "entity_id")
		ent, ok := reg.Entity(entityID)
		if !ok {
			return apperrors.NewAppError(apperrors.ErrorCodeEntityNotFound, "Entity not found: "+entityID, 404, nil)
		}

		var body struct {
			Command string         `json:"command"`
			Params  map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("Request body must be valid JSON", nil)
		}
		if body.Command == "" {
			return apperrors.NewValidationError("command is required", nil)
		}

		if err := ent.HandleCommand(r.Context(), body.Command, body.Params); err != nil {
			return mapCommandError(err)
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"object":    "command_result",
			"entity_id": entityID,
			"command":   body.Command,
			"status":    "accepted",
		})
	}))
}

func (r *Registry) formatEntity(ent entities.Entity) map[string]any {
	st, err := r.State(ent.DeviceID())
	attributes := map[string]any{}
	if err == nil {
		attributes = ent.Attributes(st)
	}
	payload := map[string]any{
		"object":     "entity",
		"entity_id":  ent.ID(),
		"device_id":  ent.DeviceID(),
		"kind":       ent.Kind(),
		"name":       ent.Name(),
		"attributes": attributes,
	}
	if remote, ok := ent.(*entities.Remote); ok {
		payload["simple_commands"] = remote.SimpleCommands()
	}
	return payload
}

func mapCommandError(err error) error {
	switch {
	case errors.Is(err, entities.ErrUnsupportedCommand), errors.Is(err, entities.ErrMissingParam):
		return apperrors.NewValidationError(err.Error(), nil)
	case naim.IsUnreachable(err):
		return apperrors.NewAppError(apperrors.ErrorCodeDeviceUnreachable,
			"Device did not respond", http.StatusBadGateway, nil)
	case naim.IsRejected(err):
		return apperrors.NewAppError(apperrors.ErrorCodeCommandRejected,
			"Device rejected the command", http.StatusBadGateway, nil)
	case naim.IsMalformed(err):
		return apperrors.NewAppError(apperrors.ErrorCodeMalformedResponse,
			"Device returned an unreadable response", http.StatusBadGateway, nil)
	default:
		return apperrors.NewInternalError("Command execution failed")
	}
}
