package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videojobs/internal/core"
	applog "videojobs/internal/log"
	"videojobs/internal/pricing"
	"videojobs/internal/services"
	"videojobs/internal/sheets"
	"videojobs/internal/sheets/memory"
)

type failingStore struct {
	loadErr, saveErr error
}

func (f failingStore) Load(context.Context) (core.JobLog, error) { return nil, f.loadErr }
func (f failingStore) Save(context.Context, core.JobLog) error  { return f.saveErr }

var fixedNow = time.Date(2024, 3, 25, 15, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, store sheets.LogStore, mutate ...func(*Options)) *Server {
	t.Helper()
	opts := Options{
		Addr:               ":0",
		Version:            "test",
		RateLimitPerSecond: 100,
		CurrencyLocale:     "en",
		ShowStorageNotice:  true,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		Now:                func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewServer(services.NewJobService(store, pricing.Default(), nil), opts)
}

func do(t *testing.T, srv *Server, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postJob(t *testing.T, srv *Server, date, videoType, duration string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"date": {date}, "video_type": {videoType}, "duration": {duration}}
	return do(t, srv, http.MethodPost, "/jobs", form.Encode(), "application/x-www-form-urlencoded")
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	rr := do(t, srv, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "Seguimiento de Edición de Videos")
	assert.Contains(t, body, StorageNotice)
	assert.Contains(t, body, `value="2024-03-25"`, "date defaults to today")
	assert.Contains(t, body, "No hay videos cargados aún.")

	// type options follow table order
	prev := -1
	for _, vt := range pricing.Default().VideoTypes() {
		idx := strings.Index(body, `<option value="`+vt+`">`)
		require.Greater(t, idx, prev, "option %q out of order", vt)
		prev = idx
	}

	assert.Equal(t, "videojobs", rr.Header().Get("App-Name"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestIndexPage_NoticeDisabled(t *testing.T) {
	srv := newTestServer(t, memory.New(nil), func(o *Options) { o.ShowStorageNotice = false })

	rr := do(t, srv, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), StorageNotice)
}

func TestIndexPage_StoreFailure(t *testing.T) {
	srv := newTestServer(t, failingStore{loadErr: errors.New("disk gone")})

	rr := do(t, srv, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))
	rr := do(t, srv, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateJob_Success(t *testing.T) {
	store := memory.New(nil)
	srv := newTestServer(t, store)

	rr := postJob(t, srv, "2024-03-10", "CLIP", "15")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "✅ Video agregado correctamente. Pago: $27,500 ARS")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"job:recorded"`)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"month":"2024-03"`)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"form:reset"`)

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, core.JobRecord{Date: core.NewDate(2024, 3, 10), VideoType: "CLIP", DurationMinutes: 15, Price: core.Money{Pesos: 27500}}, log[0])
}

func TestCreateJob_JSONBodyAndDefaultDate(t *testing.T) {
	store := memory.New(nil)
	srv := newTestServer(t, store)

	rr := do(t, srv, http.MethodPost, "/jobs", `{"video_type": "De 5 a 10 minutos", "duration": 12}`, "application/json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Pago: $21,417 ARS")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2024-03-25", log[0].Date.String())
}

func TestCreateJob_Validation(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		videoType string
		duration  string
		wantMsg   string
	}{
		{"unknown type", "2024-03-10", "Nonexistent", "5", "Tipo de video desconocido"},
		{"missing type", "2024-03-10", "", "5", "Seleccioná un tipo de video"},
		{"zero duration", "2024-03-10", "CLIP", "0", "La duración debe ser de al menos 1 minuto"},
		{"non-numeric duration", "2024-03-10", "CLIP", "abc", "La duración debe ser de al menos 1 minuto"},
		{"duration over a day", "2024-03-10", "Hasta 5 minutos", "1441", "La duración no puede superar 1440 minutos"},
		{"surcharge would wrap positive", "2024-03-10", "Hasta 5 minutos", "10000000000000000", "La duración no puede superar 1440 minutos"},
		{"surcharge would wrap negative", "2024-03-10", "Hasta 5 minutos", "5000000000000000", "La duración no puede superar 1440 minutos"},
		{"year one", "0001-01-01", "CLIP", "5", "Fecha inválida"},
		{"bad date", "10/03/2024", "CLIP", "5", "Fecha inválida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New(nil)
			srv := newTestServer(t, store)

			rr := postJob(t, srv, tt.date, tt.videoType, tt.duration)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantMsg)
			assert.Empty(t, rr.Header().Get("HX-Trigger"))

			log, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, log)
		})
	}
}

func TestCreateJob_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))
	rr := do(t, srv, http.MethodPost, "/jobs", `{"video_type":`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateJob_StorageFailure(t *testing.T) {
	srv := newTestServer(t, failingStore{saveErr: errors.New("read-only file system")})

	rr := postJob(t, srv, "2024-03-10", "CLIP", "15")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error al guardar el video")
}

func TestCreateJob_WrongMethod(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))
	rr := do(t, srv, http.MethodGet, "/jobs", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCreateJob_RateLimited(t *testing.T) {
	srv := newTestServer(t, memory.New(nil), func(o *Options) { o.RateLimitPerSecond = 1 })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, postJob(t, srv, "2024-03-10", "OPEN", "1").Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func seededStore() *memory.Store {
	return memory.New(core.JobLog{
		{Date: core.NewDate(2024, 3, 20), VideoType: "Hasta 5 minutos", DurationMinutes: 3, Price: core.Money{Pesos: 8863}},
		{Date: core.NewDate(2024, 2, 14), VideoType: "SAM", DurationMinutes: 9, Price: core.Money{Pesos: 11000}},
		{Date: core.NewDate(2024, 3, 10), VideoType: "CLIP", DurationMinutes: 15, Price: core.Money{Pesos: 27500}},
	})
}

func TestSummaryPartial(t *testing.T) {
	srv := newTestServer(t, seededStore())

	rr := do(t, srv, http.MethodGet, "/ui/summary", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `id="summary"`)
	assert.Contains(t, body, "2024-03")
	assert.Contains(t, body, `<span class="value">2</span>`)
	assert.Contains(t, body, "$36,363")
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-cache")
}

func TestMonthsPartial(t *testing.T) {
	srv := newTestServer(t, seededStore())

	rr := do(t, srv, http.MethodGet, "/ui/months", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	// tabs most recent first
	assert.Less(t, strings.Index(body, "month=2024-03"), strings.Index(body, "month=2024-02"))

	// current month open by default, rows sorted by date
	assert.Contains(t, body, "Videos del mes: 2024-03")
	first, second := strings.Index(body, "2024-03-10"), strings.Index(body, "2024-03-20")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Contains(t, body, "Total mensual: $36,363 ARS")

	rr = do(t, srv, http.MethodGet, "/ui/months?month=2024-02", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Videos del mes: 2024-02")
	assert.Contains(t, rr.Body.String(), "Total mensual: $11,000 ARS")
	assert.NotContains(t, rr.Body.String(), "2024-03-10")
}

func TestMonthsPartial_Empty(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	rr := do(t, srv, http.MethodGet, "/ui/months", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No hay videos cargados aún.")
	assert.NotContains(t, rr.Body.String(), "tablist")
}

func TestEndToEnd_RecordThenSummarize(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	require.Equal(t, http.StatusOK, postJob(t, srv, "2024-03-10", "CLIP", "15").Code)
	require.Equal(t, http.StatusOK, postJob(t, srv, "2024-03-20", "Hasta 5 minutos", "3").Code)

	rr := do(t, srv, http.MethodGet, "/api/v1/summary?month=2024-03", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Months, 1)
	march := resp.Months[0]
	assert.Equal(t, "2024-03", march.Month)
	assert.Equal(t, 2, march.Count)
	assert.Equal(t, int64(36363), march.Total)
	require.Len(t, march.Records, 2)
	assert.Equal(t, "2024-03-10", march.Records[0].Date)
	assert.Equal(t, "2024-03-20", march.Records[1].Date)
	assert.Equal(t, resp.Current.Total, march.Total)
	assert.False(t, resp.Empty)
}

func TestAPISummary_AllMonths(t *testing.T) {
	srv := newTestServer(t, seededStore())

	rr := do(t, srv, http.MethodGet, "/api/v1/summary", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Months, 2)
	assert.Equal(t, "2024-03", resp.Months[0].Month)
	assert.Equal(t, "2024-02", resp.Months[1].Month)
	assert.Equal(t, "$36,363 ARS", resp.Current.Formatted)
}

func TestAPIPricing(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	rr := do(t, srv, http.MethodGet, "/api/v1/pricing", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		VideoTypes  []string `json:"video_types"`
		ExtraMinute int64    `json:"extra_minute"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, pricing.Default().VideoTypes(), resp.VideoTypes)
	assert.Equal(t, int64(1845), resp.ExtraMinute)
}

func TestAPIQuote(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	tests := []struct {
		videoType string
		duration  string
		wantCode  int
		wantPrice int64
	}{
		{"CLIP", "15", http.StatusOK, 27500},
		{"Hasta 5 minutos", "5", http.StatusOK, 8863},
		{"De 5 a 10 minutos", "6", http.StatusOK, 17727},
		{"De 5 a 10 minutos", "12", http.StatusOK, 21417},
		{"Nonexistent", "100", http.StatusUnprocessableEntity, 0},
		{"CLIP", "0", http.StatusUnprocessableEntity, 0},
	}

	for _, tt := range tests {
		t.Run(tt.videoType+"/"+tt.duration, func(t *testing.T) {
			q := url.Values{"type": {tt.videoType}, "duration": {tt.duration}}
			rr := do(t, srv, http.MethodGet, "/api/v1/quote?"+q.Encode(), "", "")
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, float64(tt.wantPrice), resp["price"])
				return
			}
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, seededStore())

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = do(t, srv, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"records":3`)

	rr = do(t, srv, http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())

	broken := newTestServer(t, failingStore{loadErr: errors.New("locked")})
	rr = do(t, broken, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
}

func TestMetricsAndStatic(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))
	require.Equal(t, http.StatusOK, postJob(t, srv, "2024-03-10", "CLIP", "15").Code)

	rr := do(t, srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "jobs_recorded_total 1")
	assert.Contains(t, rr.Body.String(), "http_requests_total 1")

	rr = do(t, srv, http.MethodGet, "/static/style.css", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600, immutable", rr.Header().Get("Cache-Control"))
}
