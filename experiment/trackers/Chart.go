package trackers

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment/tracker"
)

// Series names a Field to be drawn as one line of a Chart
type Series struct {
	Name  string
	Field Field
}

// Chart tracks diagnostics over all updates of an experiment and saves
// them as an HTML line chart with one line per Series.
type Chart struct {
	title    string
	series   []Series
	updates  []string
	values   [][]float64
	filename string
}

// NewChart creates and returns a new Chart tracker which renders the
// given series to the HTML file filename
func NewChart(title, filename string, series ...Series) tracker.Tracker {
	return &Chart{
		title:    title,
		series:   series,
		values:   make([][]float64, len(series)),
		filename: filename,
	}
}

// Track records the value of each series for update d
func (c *Chart) Track(update int, d ppo.Diagnostics) {
	c.updates = append(c.updates, strconv.Itoa(update))
	for i, s := range c.series {
		c.values[i] = append(c.values[i], s.Field(d))
	}
}

// Save renders the chart to the tracker's file
func (c *Chart) Save() error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: c.title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "update"}),
	)
	line.SetXAxis(c.updates)

	for i, s := range c.series {
		items := make([]opts.LineData, len(c.values[i]))
		for j, v := range c.values[i] {
			items[j] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, items)
	}

	file, err := os.Create(c.filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}
	if err := line.Render(file); err != nil {
		file.Close()
		return fmt.Errorf("save: could not render chart: %w", err)
	}
	return file.Close()
}
