package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videojobs/internal/core"
	"videojobs/internal/pricing"
	"videojobs/internal/services"
	"videojobs/internal/sheets/memory"
)

func testEnv(t *testing.T, seed core.JobLog) (commonOpts, *bytes.Buffer, *memory.Store) {
	t.Helper()
	store := memory.New(seed)
	buf := &bytes.Buffer{}
	return commonOpts{
		ctx:       context.Background(),
		service:   services.NewJobService(store, pricing.Default(), nil),
		formatter: core.NewFormatter("en"),
		out:       buf,
		now:       func() time.Time { return time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC) },
	}, buf, store
}

func TestAddCommand(t *testing.T) {
	env, buf, store := testEnv(t, nil)

	cmd := &addCommand{Date: "2024-03-10", Type: "CLIP", Duration: 15}
	cmd.setCommon(env)
	require.NoError(t, cmd.Execute(nil))
	assert.Equal(t, "✅ Video agregado correctamente. Pago: $27,500 ARS\n", buf.String())

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2024-03-10", log[0].Date.String())
}

func TestAddCommandDefaultsToToday(t *testing.T) {
	env, _, store := testEnv(t, nil)

	cmd := &addCommand{Type: "De 16 a 20 minutos", Duration: 22}
	cmd.setCommon(env)
	require.NoError(t, cmd.Execute(nil))

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2024-03-25", log[0].Date.String())
	assert.Equal(t, int64(35453+2*1845), log[0].Price.Pesos)
}

func TestAddCommandRejects(t *testing.T) {
	tests := []struct {
		name string
		cmd  addCommand
		err  error
	}{
		{"bad date", addCommand{Date: "10/03/2024", Type: "CLIP", Duration: 1}, core.ErrMissingDate},
		{"unknown type", addCommand{Type: "Documental", Duration: 1}, core.ErrUnknownVideoType},
		{"blank type", addCommand{Type: "  ", Duration: 1}, core.ErrEmptyVideoType},
		{"zero duration", addCommand{Type: "OPEN", Duration: 0}, core.ErrInvalidDuration},
		{"duration over a day", addCommand{Type: "Hasta 5 minutos", Duration: core.MaxDurationMinutes + 1}, core.ErrInvalidDuration},
		{"surcharge would wrap negative", addCommand{Type: "Hasta 5 minutos", Duration: 5e15}, core.ErrInvalidDuration},
		{"surcharge would wrap positive", addCommand{Type: "Hasta 5 minutos", Duration: 1e16}, core.ErrInvalidDuration},
		{"year one", addCommand{Date: "0001-01-01", Type: "CLIP", Duration: 1}, core.ErrMissingDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, buf, store := testEnv(t, nil)
			cmd := tt.cmd
			cmd.setCommon(env)
			assert.ErrorIs(t, cmd.Execute(nil), tt.err)
			assert.Empty(t, buf.String())

			log, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, log)
		})
	}
}

func TestSummaryCommand(t *testing.T) {
	env, buf, _ := testEnv(t, core.JobLog{
		{Date: core.NewDate(2024, 3, 1), VideoType: "CLIP", DurationMinutes: 3, Price: core.Money{Pesos: 27500}},
		{Date: core.NewDate(2024, 3, 2), VideoType: "Hasta 5 minutos", DurationMinutes: 5, Price: core.Money{Pesos: 8863}},
		{Date: core.NewDate(2024, 2, 2), VideoType: "OPEN", DurationMinutes: 5, Price: core.Money{Pesos: 11000}},
	})

	cmd := &summaryCommand{}
	cmd.setCommon(env)
	require.NoError(t, cmd.Execute(nil))
	assert.Equal(t, "Mes actual: 2024-03\nVideos: 2\nTotal: $36,363 ARS\n", buf.String())
}

func TestMonthsCommand(t *testing.T) {
	t.Run("empty log", func(t *testing.T) {
		env, buf, _ := testEnv(t, nil)
		cmd := &monthsCommand{}
		cmd.setCommon(env)
		require.NoError(t, cmd.Execute(nil))
		assert.Equal(t, "No hay videos cargados aún.\n", buf.String())
	})

	seed := core.JobLog{
		{Date: core.NewDate(2024, 1, 5), VideoType: "OPEN", DurationMinutes: 1, Price: core.Money{Pesos: 11000}},
		{Date: core.NewDate(2023, 12, 31), VideoType: "SAM", DurationMinutes: 2, Price: core.Money{Pesos: 11000}},
	}

	t.Run("all months newest first", func(t *testing.T) {
		env, buf, _ := testEnv(t, seed)
		cmd := &monthsCommand{}
		cmd.setCommon(env)
		require.NoError(t, cmd.Execute(nil))
		out := buf.String()
		assert.Contains(t, out, "📅 Videos del mes: 2024-01")
		assert.Contains(t, out, "💰 Total mensual: $11,000 ARS")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("2024-01")), bytes.Index(buf.Bytes(), []byte("2023-12")))
	})

	t.Run("single month", func(t *testing.T) {
		env, buf, _ := testEnv(t, seed)
		cmd := &monthsCommand{Month: "2023-12"}
		cmd.setCommon(env)
		require.NoError(t, cmd.Execute(nil))
		assert.Contains(t, buf.String(), "2023-12-31")
		assert.NotContains(t, buf.String(), "2024-01")
	})

	t.Run("missing month", func(t *testing.T) {
		env, _, _ := testEnv(t, seed)
		cmd := &monthsCommand{Month: "2020-01"}
		cmd.setCommon(env)
		assert.Error(t, cmd.Execute(nil))
	})
}

func TestTypesCommand(t *testing.T) {
	env, buf, _ := testEnv(t, nil)
	cmd := &typesCommand{}
	cmd.setCommon(env)
	require.NoError(t, cmd.Execute(nil))

	out := buf.String()
	for _, vt := range pricing.Default().VideoTypes() {
		assert.Contains(t, out, vt)
	}
	assert.Contains(t, out, "$54,648")
	assert.Contains(t, out, "$1,845 por minuto")
}
