package api

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/erazemk/slms/internal/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errorBody is the shape of every failed response.
type errorBody struct {
	OK      bool      `json:"ok"`
	Error   errs.Kind `json:"error"`
	Message string    `json:"message"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, kind errs.Kind, message string) {
	jsonResponse(w, status, errorBody{OK: false, Error: kind, Message: message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotAuthenticated:
		return http.StatusUnauthorized
	case errs.KindNotAuthorized:
		return http.StatusForbidden
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindCapacityExceeded:
		return http.StatusUnprocessableEntity
	case errs.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports a failed operation. Errors without a kind are treated as
// internal and their text is not sent to the client.
func writeError(w http.ResponseWriter, err error) {
	var coded *errs.Error
	if !errors.As(err, &coded) {
		slog.Error("unhandled error", "error", err)
		jsonError(w, http.StatusInternalServerError, errs.KindInternalConsistency, "internal error")
		return
	}
	jsonError(w, statusFor(coded.Kind), coded.Kind, coded.Message)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads the body into target and runs its validate tags.
// Failures come back as validation errors.
func decodeAndValidate(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil {
		return errs.New(errs.KindValidation, "invalid request body")
	}

	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errs.New(errs.KindValidation, err.Error())
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
		return errs.New(errs.KindValidation, strings.Join(problems, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_if":
		field, value, _ := strings.Cut(fe.Param(), " ")
		return fe.Field() + " is required when " + field + " is " + value
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
