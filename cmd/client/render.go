package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/orchestrator"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// seriesRows is how many of the most recent bars are shown.
const seriesRows = 10

func render(w io.Writer, b orchestrator.ResultBundle) {
	title := fmt.Sprintf("%s  %s/%s  #%d", b.Symbol, b.Params.Period, b.Params.Interval, b.Generation)
	if b.Err != "" {
		fmt.Fprintf(w, "%s\n%s\n\n", title, text.FgRed.Sprint("error: "+b.Err))
		return
	}

	if b.Signal != nil {
		renderSignal(w, title, *b.Signal)
	}
	if len(b.Series) > 0 {
		renderSeries(w, b.Series, b.Averages)
	}
	if b.Backtest != nil {
		renderBacktest(w, *b.Backtest)
	}
	fmt.Fprintln(w)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func renderSignal(w io.Writer, title string, s models.SignalResult) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Signal", "Last close", "Predicted", "MA5", "MA20", "RSI"})
	t.AppendRow(table.Row{
		colorSignal(s.Signal),
		fmt.Sprintf("%.2f", s.LastClose),
		fmt.Sprintf("%+.4f%%", s.PredictedReturn*100),
		fmt.Sprintf("%.2f", s.Features.MA5),
		fmt.Sprintf("%.2f", s.Features.MA20),
		fmt.Sprintf("%.1f", s.Features.RSI),
	})
	t.Render()
}

func renderSeries(w io.Writer, series []models.TimeSeriesPoint, averages map[int][]models.DerivedPoint) {
	lengths := make([]int, 0, len(averages))
	for n := range averages {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)

	byTime := make(map[int]map[string]float64, len(lengths))
	header := table.Row{"Time", "Close"}
	for _, n := range lengths {
		m := make(map[string]float64, len(averages[n]))
		for _, p := range averages[n] {
			m[p.Time] = p.Value
		}
		byTime[n] = m
		header = append(header, "MA"+strconv.Itoa(n))
	}

	t := newTable(w, "")
	t.AppendHeader(header)
	start := len(series) - seriesRows
	if start < 0 {
		start = 0
	}
	for _, p := range series[start:] {
		row := table.Row{p.Time, fmt.Sprintf("%.2f", p.Close)}
		for _, n := range lengths {
			if v, ok := byTime[n][p.Time]; ok {
				row = append(row, fmt.Sprintf("%.4f", v))
			} else {
				row = append(row, "")
			}
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d bars", len(series))})
	t.Render()
}

func renderBacktest(w io.Writer, r models.BacktestResult) {
	t := newTable(w, fmt.Sprintf("SMA %d/%d  fee %gbps", r.Fast, r.Slow, r.FeeBps))
	if r.Error != "" {
		t.AppendRow(table.Row{text.FgYellow.Sprint(r.Error)})
		t.Render()
		return
	}
	t.AppendHeader(table.Row{"CAGR", "Max drawdown", "Sharpe", "Trades"})
	t.AppendRow(table.Row{
		fmt.Sprintf("%.2f%%", r.Metrics.CAGR*100),
		fmt.Sprintf("%.2f%%", r.Metrics.MaxDrawdown*100),
		fmt.Sprintf("%.2f", r.Metrics.Sharpe),
		r.Metrics.TradeCount,
	})
	t.Render()
}

func colorSignal(s string) string {
	switch s {
	case models.SignalBuy:
		return text.FgGreen.Sprint(s)
	case models.SignalSell:
		return text.FgRed.Sprint(s)
	default:
		return s
	}
}
