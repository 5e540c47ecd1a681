package experiment

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/raharth/gomatch/learner"
)

// MetricPlotter redraws the learning curve every interval epochs,
// plotting the smoothed total reward per episode next to the raw
// rewards.
type MetricPlotter struct {
	interval int
	window   int // smoothing window over episodes
	filename string
	epochs   int
}

// NewMetricPlotter returns a MetricPlotter writing the learning curve
// to filename as a PNG. The reward curve is smoothed with a moving
// average over window episodes.
func NewMetricPlotter(interval, window int,
	filename string) (*MetricPlotter, error) {
	if interval < 1 {
		return nil, fmt.Errorf("newmetricplotter: interval must be > 0, "+
			"got %v", interval)
	}
	if window < 1 {
		return nil, fmt.Errorf("newmetricplotter: window must be > 0, "+
			"got %v", window)
	}
	return &MetricPlotter{
		interval: interval,
		window:   window,
		filename: filename,
	}, nil
}

// OnEpochEnd implements the Callback interface.
func (m *MetricPlotter) OnEpochEnd(l learner.Learner,
	_ learner.EpochResult) error {
	m.epochs++
	if m.epochs%m.interval != 0 {
		return nil
	}
	return m.plot(l.History())
}

func (m *MetricPlotter) plot(h *learner.History) error {
	if h.Episodes() == 0 {
		return nil
	}

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("plot: could not create plot: %v", err)
	}
	p.Title.Text = "Learning Progress"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Total Reward"

	raw := make(plotter.XYs, len(h.Rewards))
	for i, r := range h.Rewards {
		raw[i].X = float64(i)
		raw[i].Y = r
	}
	rawLine, err := plotter.NewLine(raw)
	if err != nil {
		return fmt.Errorf("plot: could not plot rewards: %v", err)
	}

	smooth := smoothed(h.Rewards, m.window)
	smoothPts := make(plotter.XYs, len(smooth))
	for i, r := range smooth {
		smoothPts[i].X = float64(i)
		smoothPts[i].Y = r
	}
	smoothLine, err := plotter.NewLine(smoothPts)
	if err != nil {
		return fmt.Errorf("plot: could not plot smoothed rewards: %v", err)
	}
	smoothLine.Width = vg.Points(2)

	p.Add(rawLine, smoothLine)
	p.Legend.Add("reward", rawLine)
	p.Legend.Add(fmt.Sprintf("mean over %d", m.window), smoothLine)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, m.filename); err != nil {
		return fmt.Errorf("plot: could not save plot: %v", err)
	}
	return nil
}

// smoothed computes a trailing moving average over a window. Early
// entries average over however many values exist so far.
func smoothed(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}
