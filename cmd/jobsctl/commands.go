package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"videojobs/internal/core"
	"videojobs/internal/services"
)

// commonOpts carries what every command needs once the backend is up.
type commonOpts struct {
	ctx       context.Context
	service   *services.JobService
	formatter core.Formatter
	out       io.Writer
	now       func() time.Time
}

type commonSetter interface {
	setCommon(commonOpts)
}

func (c commonOpts) today() core.Date {
	return core.DateOf(c.now())
}

type addCommand struct {
	env      commonOpts
	Date     string `long:"date" description:"job date as YYYY-MM-DD, defaults to today"`
	Type     string `long:"type" required:"true" description:"video type, see the types command"`
	Duration int    `long:"duration" required:"true" description:"duration in whole minutes"`
}

func (a *addCommand) setCommon(o commonOpts) { a.env = o }

func (a *addCommand) Execute(_ []string) error {
	date := a.env.today()
	if s := strings.TrimSpace(a.Date); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return fmt.Errorf("fecha inválida %q: %w", s, core.ErrMissingDate)
		}
		date = d
	}

	videoType := strings.TrimSpace(a.Type)
	if videoType == "" {
		return core.ErrEmptyVideoType
	}
	if !a.env.service.Pricing().IsKnown(videoType) {
		return fmt.Errorf("tipo de video %q: %w", videoType, core.ErrUnknownVideoType)
	}
	if a.Duration < 1 || a.Duration > core.MaxDurationMinutes {
		return fmt.Errorf("duración %d: %w", a.Duration, core.ErrInvalidDuration)
	}

	price, err := a.env.service.RecordNow(a.env.ctx, date, videoType, a.Duration)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.out, "✅ Video agregado correctamente. Pago: %s\n", a.env.formatter.WithCurrency(price))
	return nil
}

type summaryCommand struct {
	env commonOpts
}

func (s *summaryCommand) setCommon(o commonOpts) { s.env = o }

func (s *summaryCommand) Execute(_ []string) error {
	today := s.env.today()
	rep, err := s.env.service.Summary(s.env.ctx, today.Time)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.env.out, "Mes actual: %s\n", today.MonthKey())
	fmt.Fprintf(s.env.out, "Videos: %d\n", rep.Current.Count)
	fmt.Fprintf(s.env.out, "Total: %s\n", s.env.formatter.WithCurrency(rep.Current.Total))
	return nil
}

type monthsCommand struct {
	env   commonOpts
	Month string `long:"month" description:"show a single month, YYYY-MM"`
}

func (m *monthsCommand) setCommon(o commonOpts) { m.env = o }

func (m *monthsCommand) Execute(_ []string) error {
	rep, err := m.env.service.Summary(m.env.ctx, m.env.today().Time)
	if err != nil {
		return err
	}
	if rep.IsEmpty() {
		fmt.Fprintln(m.env.out, "No hay videos cargados aún.")
		return nil
	}

	months := rep.Months
	if key := strings.TrimSpace(m.Month); key != "" {
		ms, ok := rep.Month(key)
		if !ok {
			return fmt.Errorf("no hay videos en %s", key)
		}
		months = []core.MonthSummary{ms}
	}

	for i, ms := range months {
		if i > 0 {
			fmt.Fprintln(m.env.out)
		}
		m.printMonth(ms)
	}
	if rep.Undated > 0 && m.Month == "" {
		fmt.Fprintf(m.env.out, "\n%d registro(s) sin fecha válida\n", rep.Undated)
	}
	return nil
}

func (m *monthsCommand) printMonth(ms core.MonthSummary) {
	fmt.Fprintf(m.env.out, "📅 Videos del mes: %s\n", ms.Key)
	tw := tabwriter.NewWriter(m.env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Fecha\tTipo\tDuración\tPago")
	for _, rec := range ms.Records {
		fmt.Fprintf(tw, "%s\t%s\t%d min\t%s\n", rec.Date, rec.VideoType, rec.DurationMinutes, m.env.formatter.Amount(rec.Price))
	}
	_ = tw.Flush()
	fmt.Fprintf(m.env.out, "💰 Total mensual: %s\n", m.env.formatter.WithCurrency(ms.Total))
}

type typesCommand struct {
	env commonOpts
}

func (t *typesCommand) setCommon(o commonOpts) { t.env = o }

func (t *typesCommand) Execute(_ []string) error {
	table := t.env.service.Pricing()
	tw := tabwriter.NewWriter(t.env.out, 0, 4, 2, ' ', 0)
	for _, f := range table.Fixed {
		fmt.Fprintf(tw, "%s\t%s\n", f.Type, t.env.formatter.Amount(core.Money{Pesos: f.Price}))
	}
	for _, b := range table.Brackets {
		fmt.Fprintf(tw, "%s\t%s hasta %d min, luego %s por minuto\n", b.Label,
			t.env.formatter.Amount(core.Money{Pesos: b.Price}), b.Ceiling,
			t.env.formatter.Amount(core.Money{Pesos: table.ExtraMinute}))
	}
	return tw.Flush()
}
