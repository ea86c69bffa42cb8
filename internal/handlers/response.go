package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/apiclient"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON document into dst and validates it
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", models.ErrInvalidInput, err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// describeValidation flattens validator errors into one readable line
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be between 1 and %d", field, models.MaxQuantity))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// respondError maps a service error onto the BFF's JSON error contract
func respondError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var apiErr *apiclient.APIError

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, models.ErrAuthRequired):
		middleware.WriteError(w, http.StatusUnauthorized, "auth_required", "Please log in to continue.")
	case errors.Is(err, models.ErrInvalidCategory):
		middleware.WriteError(w, http.StatusBadRequest, "invalid_category", err.Error())
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidQuantity):
		middleware.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, models.ErrEventNotFound):
		middleware.WriteError(w, http.StatusNotFound, "event_not_found", "Event not found.")
	case errors.Is(err, models.ErrTicketNotFound):
		middleware.WriteError(w, http.StatusNotFound, "ticket_not_found", "Ticket not found.")
	case errors.Is(err, models.ErrTransitionInFlight):
		middleware.WriteError(w, http.StatusConflict, "transition_in_flight", "Checkout is already in progress.")
	case errors.Is(err, models.ErrInvalidTransition):
		middleware.WriteError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusGatewayTimeout, "upstream_timeout", "The event service took too long to respond.")
	case errors.As(err, &apiErr):
		log.WithError(err).WithField("request_id", middleware.RequestIDFromContext(r.Context())).Warn("upstream request failed")
		middleware.WriteError(w, http.StatusBadGateway, "upstream_error", "The event service is unavailable. Please try again.")
	default:
		log.WithError(err).WithField("request_id", middleware.RequestIDFromContext(r.Context())).Error("request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.")
	}
}
