package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
)

// RegisterRoutes wires device management routes to the router.
func RegisterRoutes(router chi.Router, reg *Registry) {
	router.Method(http.MethodGet, "/v1/devices", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		configs := reg.List()
		formatted := make([]map[string]any, 0, len(configs))
		for _, cfg := range configs {
			formatted = append(formatted, formatDevice(cfg))
		}
		return api.WriteList(w, "/v1/devices", formatted, false)
	}))

	router.Method(http.MethodPost, "/v1/devices", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var in AddInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return apperrors.NewValidationError("Request body must be valid JSON", nil)
		}
		cfg, err := reg.Add(r.Context(), in)
		if err != nil {
			return mapRegistryError(err)
		}
		return api.WriteResource(w, http.StatusCreated, formatDevice(cfg))
	}))

	router.Method(http.MethodPost, "/v1/devices/batch", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			Devices []AddInput `json:"devices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("Request body must be valid JSON", nil)
		}
		if len(body.Devices) == 0 {
			return apperrors.NewValidationError("devices must be a non-empty array", nil)
		}
		results := reg.AddBatch(r.Context(), body.Devices)
		return api.WriteJSON(w, http.StatusMultiStatus, map[string]any{
			"object":  "batch_result",
			"results": results,
		})
	}))

	router.Method(http.MethodGet, "/v1/devices/{device_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "device_id")
		cfg, ok := reg.Get(deviceID)
		if !ok {
			return apperrors.NewAppError(apperrors.ErrorCodeDeviceNotFound, "Device not found: "+deviceID, 404, nil)
		}
		return api.WriteResource(w, http.StatusOK, formatDevice(cfg))
	}))

	router.Method(http.MethodDelete, "/v1/devices/{device_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "device_id")
		if err := reg.Remove(deviceID); err != nil {
			return mapRegistryError(err)
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"object":  "device",
			"id":      deviceID,
			"deleted": true,
		})
	}))

	router.Method(http.MethodGet, "/v1/devices/{device_id}/state", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "device_id")
		st, err := reg.State(deviceID)
		if err != nil {
			return mapRegistryError(err)
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"object":    "device_state",
			"device_id": deviceID,
			"state":     st,
		})
	}))

	router.Method(http.MethodGet, "/v1/devices/{device_id}/system", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "device_id")
		info, err := reg.System(r.Context(), deviceID)
		if err != nil {
			if errors.Is(err, ErrDeviceNotFound) {
				return mapRegistryError(err)
			}
			return mapCommandError(err)
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"object":    "device_system",
			"device_id": deviceID,
			"model":     info.Model,
			"hostname":  info.Hostname,
		})
	}))

	router.Method(http.MethodPost, "/v1/devices/{device_id}/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "device_id")
		if err := reg.Refresh(deviceID); err != nil {
			return mapRegistryError(err)
		}
		return api.WriteJSON(w, http.StatusAccepted, map[string]any{
			"object":    "refresh",
			"device_id": deviceID,
			"requested": true,
		})
	}))
}

func formatDevice(cfg DeviceConfig) map[string]any {
	payload := map[string]any{
		"object":     "device",
		"device_id":  cfg.ID,
		"name":       cfg.Name,
		"host":       cfg.Host,
		"port":       cfg.Port,
		"created_at": cfg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if cfg.StandbySchedule != "" {
		payload["standby_schedule"] = cfg.StandbySchedule
	}
	return payload
}

func mapRegistryError(err error) error {
	var cfgErr *ConfigError
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return apperrors.NewAppError(apperrors.ErrorCodeDeviceNotFound, "Device not found", 404, nil)
	case errors.Is(err, ErrCapacityExceeded):
		return apperrors.NewConflictError(apperrors.ErrorCodeCapacityExceeded,
			"Device limit reached, remove a device before adding another", nil)
	case errors.Is(err, ErrDuplicateDevice):
		return apperrors.NewConflictError(apperrors.ErrorCodeDuplicateDevice,
			"A device with this host and port is already registered", nil)
	case errors.As(err, &cfgErr):
		return apperrors.NewAppError(apperrors.ErrorCodeConfigInvalid, cfgErr.Error(), 400,
			map[string]any{"field": cfgErr.Field})
	default:
		return apperrors.NewInternalError("Device operation failed")
	}
}
