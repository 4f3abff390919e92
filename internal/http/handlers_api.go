package http

import (
	"net/http"

	"github.com/go-pkgz/rest"

	"videojobs/internal/core"
	applog "videojobs/internal/log"
)

type (
	apiRecord struct {
		Date            string `json:"date"`
		VideoType       string `json:"video_type"`
		DurationMinutes int    `json:"duration_minutes"`
		Price           int64  `json:"price"`
	}

	apiMonth struct {
		Month     string      `json:"month"`
		Count     int         `json:"count"`
		Total     int64       `json:"total"`
		Formatted string      `json:"formatted"`
		Records   []apiRecord `json:"records"`
	}

	apiSummary struct {
		Current apiMonth   `json:"current"`
		Months  []apiMonth `json:"months"`
		Undated int        `json:"undated"`
		Empty   bool       `json:"empty"`
	}
)

func (s *Server) toAPIMonth(ms core.MonthSummary) apiMonth {
	out := apiMonth{
		Month:     ms.Key,
		Count:     ms.Count,
		Total:     ms.Total.Pesos,
		Formatted: s.formatter.WithCurrency(ms.Total),
		Records:   make([]apiRecord, len(ms.Records)),
	}
	for i, rec := range ms.Records {
		out.Records[i] = apiRecord{
			Date:            rec.Date.String(),
			VideoType:       rec.VideoType,
			DurationMinutes: rec.DurationMinutes,
			Price:           rec.Price.Pesos,
		}
	}
	return out
}

// GET /api/v1/summary[?month=YYYY-MM]
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	rep, err := s.service.Summary(r.Context(), today.Time)
	if err != nil {
		rest.SendErrorJSON(w, r, restLogger{s.logger}, http.StatusInternalServerError, err, "can't load job log")
		return
	}

	current := rep.Current
	if current.Key == "" {
		current.Key = today.MonthKey()
	}
	resp := apiSummary{
		Current: s.toAPIMonth(current),
		Months:  make([]apiMonth, 0, len(rep.Months)),
		Undated: rep.Undated,
		Empty:   rep.IsEmpty(),
	}

	if key := ParseMonthKey(r.URL.Query()); key != "" {
		ms, _ := rep.Month(key)
		resp.Months = append(resp.Months, s.toAPIMonth(ms))
	} else {
		for _, ms := range rep.Months {
			resp.Months = append(resp.Months, s.toAPIMonth(ms))
		}
	}

	rest.RenderJSON(w, resp)
}

// GET /api/v1/pricing
func (s *Server) handleAPIPricing(w http.ResponseWriter, r *http.Request) {
	table := s.service.Pricing()

	fixed := make([]rest.JSON, 0, len(table.Fixed))
	for _, f := range table.Fixed {
		fixed = append(fixed, rest.JSON{"type": f.Type, "price": f.Price})
	}
	brackets := make([]rest.JSON, 0, len(table.Brackets))
	for _, b := range table.Brackets {
		brackets = append(brackets, rest.JSON{"label": b.Label, "ceiling": b.Ceiling, "price": b.Price})
	}

	rest.RenderJSON(w, rest.JSON{
		"video_types":  table.VideoTypes(),
		"fixed":        fixed,
		"brackets":     brackets,
		"extra_minute": table.ExtraMinute,
		"currency":     core.CurrencySuffix,
	})
}

// GET /api/v1/quote?type=...&duration=...
func (s *Server) handleAPIQuote(w http.ResponseWriter, r *http.Request) {
	table := s.service.Pricing()
	q := r.URL.Query()

	videoType, err := ParseVideoType(sanitizeInput(q.Get("type")), table)
	if err != nil {
		rest.SendErrorJSON(w, r, restLogger{s.logger}, http.StatusUnprocessableEntity, err, ValidationMessage(err))
		return
	}
	duration, err := ParseDuration(sanitizeInput(q.Get(fieldDuration)))
	if err != nil {
		rest.SendErrorJSON(w, r, restLogger{s.logger}, http.StatusUnprocessableEntity, err, ValidationMessage(err))
		return
	}

	price := table.CalculatePrice(videoType, duration)
	s.logger.DebugContext(r.Context(), "Quote computed",
		applog.FieldOperation, applog.OpQuote,
		applog.FieldVideoType, videoType,
		applog.FieldDurationMinutes, duration,
		applog.FieldPrice, price.Pesos)

	rest.RenderJSON(w, rest.JSON{
		"video_type":       videoType,
		"duration_minutes": duration,
		"price":            price.Pesos,
		"formatted":        s.formatter.WithCurrency(price),
	})
}
