package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

type windowQuery struct {
	Window int `query:"window" validate:"min=0,max=3650"`
}

type windowsQuery struct {
	Days []int `query:"days" validate:"max=24,dive,min=0,max=3650"`
}

type skuQuery struct {
	Window int `query:"window" validate:"min=0,max=3650"`
	Top    int `query:"top" validate:"min=0,max=500"`
}

type simulationQuery struct {
	Window    int     `query:"window" validate:"min=0,max=3650"`
	Reduction float64 `query:"reduction" validate:"min=0,max=100"`
}

type searchQuery struct {
	Q     string `query:"q" validate:"max=200"`
	Limit int    `query:"limit" validate:"min=1,max=100"`
}

type exportQuery struct {
	Kind string `query:"kind" validate:"required,oneof=sales returns"`
}

// requestError is a client mistake reported as invalid_request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func invalidf(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidf("%s must be an integer", key)
	}
	return v, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, invalidf("%s must be a number", key)
	}
	return v, nil
}

func queryIntList(r *http.Request, key string) ([]int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, invalidf("%s must be a comma separated list of integers", key)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseWindow(r *http.Request) (windowQuery, error) {
	var q windowQuery
	var err error
	if q.Window, err = queryInt(r, "window", metrics.SummaryWindow); err != nil {
		return q, err
	}
	return q, check(q)
}

func parseWindows(r *http.Request) (windowsQuery, error) {
	var q windowsQuery
	var err error
	if q.Days, err = queryIntList(r, "days"); err != nil {
		return q, err
	}
	return q, check(q)
}

func parseSKU(r *http.Request) (skuQuery, error) {
	var q skuQuery
	var err error
	if q.Window, err = queryInt(r, "window", metrics.SummaryWindow); err != nil {
		return q, err
	}
	if q.Top, err = queryInt(r, "top", 20); err != nil {
		return q, err
	}
	return q, check(q)
}

func parseSimulation(r *http.Request) (simulationQuery, error) {
	var q simulationQuery
	var err error
	if q.Window, err = queryInt(r, "window", metrics.SummaryWindow); err != nil {
		return q, err
	}
	if q.Reduction, err = queryFloat(r, "reduction", 10); err != nil {
		return q, err
	}
	return q, check(q)
}

func parseSearch(r *http.Request) (searchQuery, error) {
	q := searchQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	var err error
	if q.Limit, err = queryInt(r, "limit", 10); err != nil {
		return q, err
	}
	return q, check(q)
}

func parseExport(r *http.Request) (exportQuery, error) {
	q := exportQuery{Kind: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind")))}
	if q.Kind == "" {
		q.Kind = "sales"
	}
	return q, check(q)
}

func check(q any) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidf("invalid query: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" "+validationMessage(fe))
	}
	return &requestError{msg: strings.Join(msgs, "; ")}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return "must have at most " + fe.Param() + " items"
		case reflect.String:
			return "must have at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}
