// Package monitor is a fyne widget showing the output channels: one bar per
// channel for the latest frame, a history trace of the first channels and a
// status line with trims, compare latency and trainer state.
package monitor

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/ppm"
	"github.com/itohio/gotx/pkg/sample"
	"github.com/itohio/gotx/pkg/tx"
)

// DefaultTraces is the number of channels drawn in the history plot.
const DefaultTraces = 4

// MonitorWidget is a custom Fyne widget that displays the output channels.
type MonitorWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	display []sample.Frame // downsampled history, reused
	latest  sample.Frame
	status  tx.Status
	limit   int16 // full scale of the bars

	traces           int
	maxDisplayPoints int
}

// New creates a new MonitorWidget instance.
func New(cfg *config.Config) *MonitorWidget {
	m := &MonitorWidget{
		cfg:              cfg,
		display:          make([]sample.Frame, 0, 500),
		traces:           DefaultTraces,
		maxDisplayPoints: 500,
	}
	m.limit = fullScale(cfg.Model)
	m.ExtendBaseWidget(m)
	m.Refresh()
	return m
}

// SetTraces sets how many channels the history plot shows.
func (m *MonitorWidget) SetTraces(n int) {
	m.mu.Lock()
	m.traces = max(0, min(n, len(traceColors)))
	m.mu.Unlock()
	m.Refresh()
}

// SetModel updates the bar scale after a model change.
func (m *MonitorWidget) SetModel(model *config.Model) {
	m.mu.Lock()
	m.limit = fullScale(model)
	m.mu.Unlock()
}

// UpdateData updates the widget with a new history and status.
// This should be called from the runner callback using fyne.Do().
func (m *MonitorWidget) UpdateData(history []sample.Frame, st tx.Status) {
	m.mu.Lock()
	m.display = sample.Downsample(m.display, history, m.maxDisplayPoints)
	if len(history) > 0 {
		m.latest = history[len(history)-1]
	}
	m.status = st
	m.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	m.Refresh()
}

// CreateRenderer creates the widget renderer.
func (m *MonitorWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &monitorRenderer{
		monitor: m,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// fullScale is the channel value drawn at the end of a bar.
func fullScale(m *config.Model) int16 {
	if m != nil && m.ExtendedLimits {
		return ppm.ExtendedRange
	}
	return ppm.NormalRange
}
