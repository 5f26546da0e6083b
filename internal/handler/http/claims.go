package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// requireClaims writes the error response and returns false when the caller has no usable token.
func requireClaims(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return jwt.Claims{}, false
	}
	return claims, true
}

// parseCoordinates reads the latitude and longitude query parameters.
func parseCoordinates(r *http.Request) (float64, float64, error) {
	var errs validator.ValidationErrors

	lat, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("latitude")), 64)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be a number",
		})
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("longitude")), 64)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be a number",
		})
	}

	if len(errs) > 0 {
		return 0, 0, errs
	}
	return lat, lon, nil
}

func queryPtr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func queryBoolPtr(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, validator.ValidationErrors{{
			Field:   key,
			Message: key + " must be true or false",
		}}
	}
	return &b, nil
}

// queryInt returns fallback for missing or malformed values.
func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
