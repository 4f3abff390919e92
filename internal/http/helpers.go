package http

import (
	"strings"

	"videojobs/internal/core"
)

// StorageNotice is the advisory shown while data may not outlive the process.
const StorageNotice = "⚠️ Esta versión de la app no guarda datos permanentemente. Al cerrar o actualizar, los datos se perderán."

// pageTitle heads the index page.
const pageTitle = "Seguimiento de Edición de Videos"

type (
	summaryView struct {
		MonthKey string
		Count    int
		Total    string
	}

	formView struct {
		Today string
		Types []string
	}

	rowView struct {
		Date      string
		VideoType string
		Duration  int
		Price     string
	}

	monthView struct {
		Key    string
		Active bool
		Count  int
		Total  string
		Rows   []rowView
	}

	monthsView struct {
		Empty    bool
		Months   []monthView
		Selected *monthView
		Undated  int
	}

	indexView struct {
		Title      string
		ShowNotice bool
		Notice     string
		Summary    summaryView
		Form       formView
		Months     monthsView
	}
)

func newSummaryView(rep core.Report, today core.Date, f core.Formatter) summaryView {
	return summaryView{
		MonthKey: today.MonthKey(),
		Count:    rep.Current.Count,
		Total:    f.Amount(rep.Current.Total),
	}
}

// newMonthsView builds the tab strip. selected picks the open tab; when it is
// empty or unknown the current month is used, falling back to the most recent.
func newMonthsView(rep core.Report, selected string, today core.Date, f core.Formatter) monthsView {
	view := monthsView{Empty: rep.IsEmpty(), Undated: rep.Undated}
	if len(rep.Months) == 0 {
		return view
	}

	if _, ok := rep.Month(selected); !ok {
		selected = today.MonthKey()
		if _, ok := rep.Month(selected); !ok {
			selected = rep.Months[0].Key
		}
	}

	view.Months = make([]monthView, len(rep.Months))
	for i, ms := range rep.Months {
		mv := monthView{
			Key:    ms.Key,
			Active: ms.Key == selected,
			Count:  ms.Count,
			Total:  f.WithCurrency(ms.Total),
		}
		if mv.Active {
			mv.Rows = make([]rowView, len(ms.Records))
			for j, rec := range ms.Records {
				mv.Rows[j] = rowView{
					Date:      rec.Date.String(),
					VideoType: rec.VideoType,
					Duration:  rec.DurationMinutes,
					Price:     f.Amount(rec.Price),
				}
			}
		}
		view.Months[i] = mv
	}
	for i := range view.Months {
		if view.Months[i].Active {
			view.Selected = &view.Months[i]
		}
	}
	return view
}

// recordedMessage is the success fragment text after a job is stored.
func recordedMessage(price core.Money, f core.Formatter) string {
	return "✅ Video agregado correctamente. Pago: " + f.WithCurrency(price)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
