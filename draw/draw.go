// Package draw renders a committed run's trajectories as echarts pages for
// the dashboard layer.
package draw

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/dtaolabs/subnetsim/log"
	"github.com/dtaolabs/subnetsim/types"
)

// maxSeries caps how many participants a single chart tracks; beyond it the
// top stakeholders by final stake are shown.
const maxSeries = 16

// RunPage assembles the full dashboard page for a run: stake, incentive,
// trust and dividend trajectories, plus the pool price if one was simulated.
func RunPage(history []types.EpochState, summary *types.Summary, prices []float64) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Subnet Simulation " + summary.ScenarioHash
	page.AddCharts(
		minerSeriesChart(history, "Miner Stake", func(m *types.Miner) float64 { return m.Stake }),
		minerSeriesChart(history, "Miner Incentive", func(m *types.Miner) float64 { return m.Incentive }),
		minerSeriesChart(history, "Miner Trust", func(m *types.Miner) float64 { return m.Trust }),
		validatorSeriesChart(history, "Validator Stake", func(v *types.Validator) float64 { return v.Stake }),
		validatorSeriesChart(history, "Validator Dividend", func(v *types.Validator) float64 { return v.Dividend }),
	)
	if len(prices) > 0 {
		page.AddCharts(priceChart(prices))
	}
	return page
}

func epochAxis(history []types.EpochState) []int {
	xs := make([]int, len(history))
	for i := range history {
		xs[i] = history[i].Epoch
	}
	return xs
}

func newLine(title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	return line
}

// topMiners returns the charted miner indices: everyone when the population
// is small, otherwise the largest final stakeholders.
func topMiners(history []types.EpochState) []int {
	last := &history[len(history)-1]
	idx := make([]int, len(last.Miners))
	for j := range idx {
		idx[j] = j
	}
	if len(idx) <= maxSeries {
		return idx
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return last.Miners[idx[a]].Stake > last.Miners[idx[b]].Stake
	})
	idx = idx[:maxSeries]
	sort.Ints(idx)
	return idx
}

func minerSeriesChart(history []types.EpochState, title string, value func(*types.Miner) float64) *charts.Line {
	line := newLine(title)
	line.SetXAxis(epochAxis(history))
	for _, j := range topMiners(history) {
		data := make([]opts.LineData, len(history))
		for e := range history {
			data[e] = opts.LineData{Value: value(&history[e].Miners[j])}
		}
		line.AddSeries(fmt.Sprintf("miner %d", history[0].Miners[j].ID), data)
	}
	return line
}

func validatorSeriesChart(history []types.EpochState, title string, value func(*types.Validator) float64) *charts.Line {
	line := newLine(title)
	line.SetXAxis(epochAxis(history))
	numValidators := len(history[0].Validators)
	for i := 0; i < numValidators && i < maxSeries; i++ {
		data := make([]opts.LineData, len(history))
		for e := range history {
			data[e] = opts.LineData{Value: value(&history[e].Validators[i])}
		}
		line.AddSeries(fmt.Sprintf("validator %d", history[0].Validators[i].ID), data)
	}
	return line
}

func priceChart(prices []float64) *charts.Line {
	line := newLine("Pool Spot Price")
	xs := make([]int, len(prices))
	data := make([]opts.LineData, len(prices))
	for i, p := range prices {
		xs[i] = i
		data[i] = opts.LineData{Value: p}
	}
	line.SetXAxis(xs)
	line.AddSeries("tao per alpha", data)
	return line
}

// Serve renders the page for every request so a refreshed browser sees the
// latest stored run.
func Serve(addr string, render func() (*components.Page, error)) error {
	http.HandleFunc("/", func(rw http.ResponseWriter, req *http.Request) {
		page, err := render()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		page.Render(rw)
	})
	log.Info(log.WebMonitoring, "chart server listening", "addr", addr)
	return http.ListenAndServe(addr, nil)
}
