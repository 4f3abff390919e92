package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/rest"

	applog "videojobs/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rest.RenderJSON(w, rest.JSON{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks templates and that the Log Store can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := rest.JSON{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if log, err := s.service.Load(ctx); err != nil {
		checks["log_store"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["log_store"] = rest.JSON{"status": "ok", "records": len(log)}
	}

	renderJSONStatus(w, code, rest.JSON{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	jobs := atomic.LoadInt64(&s.appMetrics.jobsRecorded)

	metrics := []struct {
		name, help, kind string
		value            int64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors},
		{"http_response_time_avg_microseconds", "Average response time", "gauge", traceMetrics.AverageResponseTime},
		{"jobs_recorded_total", "Jobs recorded through this process", "counter", jobs},
		{"security_suspicious_requests_total", "Requests flagged as suspicious", "counter", securityMetrics.SuspiciousRequests},
		{"security_invalid_ip_total", "Malformed forwarded client addresses", "counter", securityMetrics.InvalidIPAttempts},
		{"uptime_seconds", "Process uptime", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds())},
	}

	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	rep, err := s.service.Summary(r.Context(), today.Time)
	if err != nil {
		s.structured.LogError(r.Context(), "Summary load failed", err, applog.OpSummary, nil)
		http.Error(w, "no se pudieron cargar los datos", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "index.html", indexView{
		Title:      pageTitle,
		ShowNotice: s.showNotice,
		Notice:     StorageNotice,
		Summary:    newSummaryView(rep, today, s.formatter),
		Form:       formView{Today: today.String(), Types: s.service.Pricing().VideoTypes()},
		Months:     newMonthsView(rep, "", today, s.formatter),
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse job request failed", applog.FieldError, err)
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	in, err := ParseJobInput(p, s.service.Pricing(), s.today())
	if err != nil {
		logger.InfoContext(ctx, "Job rejected", applog.FieldError, err)
		UnprocessableEntityError(ValidationMessage(err)).Write(w)
		return
	}

	price, err := s.service.RecordNow(ctx, in.Date, in.VideoType, in.DurationMinutes)
	if err != nil {
		if msg := ValidationMessage(err); msg != "" {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		s.structured.LogError(ctx, "Record job failed", err, applog.OpRecord,
			applog.NewFields().WithJob(in.Date.String(), in.VideoType, in.DurationMinutes, 0))
		InternalServerError("Error al guardar el video").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.jobsRecorded, 1)

	SuccessResponse(recordedMessage(price, s.formatter)).
		TriggerJobRecorded(in.Date.MonthKey()).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	rep, err := s.service.Summary(r.Context(), today.Time)
	if err != nil {
		s.structured.LogError(r.Context(), "Summary load failed", err, applog.OpSummary, nil)
		InternalServerError("No se pudo cargar el resumen").Write(w)
		return
	}
	s.render(w, r, "summary", newSummaryView(rep, today, s.formatter))
}

func (s *Server) handleMonthsPartial(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	rep, err := s.service.Summary(r.Context(), today.Time)
	if err != nil {
		s.structured.LogError(r.Context(), "Summary load failed", err, applog.OpSummary, nil)
		InternalServerError("No se pudieron cargar los meses").Write(w)
		return
	}
	s.render(w, r, "month_tabs", newMonthsView(rep, ParseMonthKey(r.URL.Query()), today, s.formatter))
}
