package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func pathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func driverIDParam(r *http.Request) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := pathParam(r, "driverId", &id)
	return id, err
}

func dateParam(r *http.Request) (time.Time, error) {
	var d openapi_types.Date
	if err := pathParam(r, "date", &d); err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func queryParam(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// timeRange reads the required from/to query parameters and checks their
// order.
func timeRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if err := queryParam(r, "from", true, &from); err != nil {
		return from, to, err
	}
	if err := queryParam(r, "to", true, &to); err != nil {
		return from, to, err
	}
	if to.Before(from) {
		return from, to, errors.New("to must not be before from")
	}
	return from, to, nil
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("can't decode JSON body: %w", err)
	}
	return nil
}
