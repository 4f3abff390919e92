// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the job form, month selection and quote queries.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"videojobs/internal/core"
	"videojobs/internal/pricing"
)

// Form field names shared by the HTML form, JSON bodies and query strings.
const (
	fieldDate      = "date"
	fieldVideoType = "video_type"
	fieldDuration  = "duration"
	fieldMonth     = "month"
)

// JobInput is a validated job submission.
type JobInput struct {
	Date            core.Date
	VideoType       string
	DurationMinutes int
}

// FieldError reports which input field failed and wraps the domain error.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseJobInput validates a job submission against the pricing table. An
// empty date defaults to today.
func ParseJobInput(p *RequestBodyParser, prices pricing.Table, today core.Date) (JobInput, error) {
	in := JobInput{Date: today}

	if v := p.Get(fieldDate); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return JobInput{}, &FieldError{Field: fieldDate, Message: "Fecha inválida", Err: core.ErrMissingDate}
		}
		in.Date = d
	}

	videoType, err := ParseVideoType(p.Get(fieldVideoType), prices)
	if err != nil {
		return JobInput{}, err
	}
	in.VideoType = videoType

	duration, err := ParseDuration(p.Get(fieldDuration))
	if err != nil {
		return JobInput{}, err
	}
	in.DurationMinutes = duration

	return in, nil
}

// ParseVideoType accepts only labels offered by the pricing table.
func ParseVideoType(v string, prices pricing.Table) (string, error) {
	if v == "" {
		return "", &FieldError{Field: fieldVideoType, Message: "Seleccioná un tipo de video", Err: core.ErrEmptyVideoType}
	}
	if !prices.IsKnown(v) {
		return "", &FieldError{Field: fieldVideoType, Message: "Tipo de video desconocido", Err: core.ErrUnknownVideoType}
	}
	return v, nil
}

// ParseDuration parses a whole number of minutes between 1 and
// core.MaxDurationMinutes.
func ParseDuration(v string) (int, error) {
	d, err := strconv.Atoi(v)
	if err != nil || d < 1 {
		return 0, &FieldError{Field: fieldDuration, Message: "La duración debe ser de al menos 1 minuto", Err: core.ErrInvalidDuration}
	}
	if d > core.MaxDurationMinutes {
		return 0, &FieldError{Field: fieldDuration, Message: maxDurationMessage, Err: core.ErrInvalidDuration}
	}
	return d, nil
}

var maxDurationMessage = fmt.Sprintf("La duración no puede superar %d minutos", core.MaxDurationMinutes)

// ParseMonthKey returns the "YYYY-MM" key in the month query parameter, or
// "" when absent or malformed.
func ParseMonthKey(query url.Values) string {
	v := strings.TrimSpace(query.Get(fieldMonth))
	if v == "" {
		return ""
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}

// ValidationMessage returns the user-facing text for err, or "" when err is
// not an input problem.
func ValidationMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}
	switch {
	case errors.Is(err, core.ErrInvalidDuration):
		return "La duración debe ser de al menos 1 minuto"
	case errors.Is(err, core.ErrMissingDate):
		return "Fecha inválida"
	case errors.Is(err, core.ErrEmptyVideoType):
		return "Seleccioná un tipo de video"
	case errors.Is(err, core.ErrUnknownVideoType):
		return "Tipo de video desconocido"
	case errors.Is(err, core.ErrInvalidPrice):
		return "Precio inválido"
	}
	return ""
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	if r.Body != nil {
		p.body, p.err = io.ReadAll(r.Body)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
