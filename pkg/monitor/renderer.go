package monitor

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"

	"github.com/itohio/gotx/pkg/channel"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/sample"
	"github.com/itohio/gotx/pkg/tx"
)

var (
	gridColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	barColor    = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	statusColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	warnColor   = color.RGBA{R: 230, G: 60, B: 60, A: 255}

	traceColors = []color.RGBA{
		{R: 100, G: 200, B: 255, A: 255},
		{R: 255, G: 165, B: 0, A: 255},
		{R: 120, G: 220, B: 120, A: 255},
		{R: 220, G: 120, B: 220, A: 255},
		{R: 240, G: 240, B: 100, A: 255},
		{R: 100, G: 240, B: 220, A: 255},
		{R: 240, G: 140, B: 120, A: 255},
		{R: 180, G: 180, B: 255, A: 255},
	}
)

// monitorRenderer renders the monitor widget.
type monitorRenderer struct {
	monitor *MonitorWidget

	bg *canvas.Rectangle

	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *monitorRenderer) MinSize() fyne.Size {
	return fyne.NewSize(480, 360)
}

// Layout arranges the widget components.
func (r *monitorRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.monitor.BaseWidget.Refresh()
	}
}

// Refresh redraws bars, history and status.
func (r *monitorRenderer) Refresh() {
	m := r.monitor
	m.mu.RLock()
	history := m.display
	latest := m.latest
	st := m.status
	limit := float32(m.limit)
	traces := m.traces
	m.mu.RUnlock()

	size := m.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = append(r.objects[:0], r.bg)

	const (
		margin     = float32(10)
		labelWidth = float32(40)
		statusH    = float32(36)
	)
	barsH := (size.Height - statusH - 3*margin) / 2
	plotY := margin + barsH + margin
	plotH := barsH

	r.drawBars(margin+labelWidth, margin, size.Width-2*margin-labelWidth, barsH, &latest.Channels, limit)
	r.drawHistory(margin+labelWidth, plotY, size.Width-2*margin-labelWidth, plotH, history, traces, limit)
	r.drawStatus(margin, size.Height-statusH, st)
}

// drawBars draws one horizontal bar per channel growing from the center line.
func (r *monitorRenderer) drawBars(x, y, w, h float32, ch *[channel.Num]int16, limit float32) {
	rowH := h / channel.Num
	center := x + w/2

	axis := canvas.NewLine(gridColor)
	axis.Position1 = fyne.NewPos(center, y)
	axis.Position2 = fyne.NewPos(center, y+h)
	axis.StrokeWidth = 1
	r.objects = append(r.objects, axis)

	for i, v := range ch {
		rowY := y + float32(i)*rowH

		text := canvas.NewText(fmt.Sprintf("CH%d", i+1), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(x-5, rowY))
		r.objects = append(r.objects, text)

		left, width := barSpan(v, limit, x, w)
		bar := canvas.NewRectangle(barColor)
		bar.Move(fyne.NewPos(left, rowY+1))
		bar.Resize(fyne.NewSize(width, math32.Max(1, rowH-2)))
		r.objects = append(r.objects, bar)
	}
}

// drawHistory draws the first channels over the retained frames.
func (r *monitorRenderer) drawHistory(x, y, w, h float32, history []sample.Frame, traces int, limit float32) {
	for i := range 5 {
		gy := y + float32(i)*h/4
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, gy)
		line.Position2 = fyne.NewPos(x+w, gy)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}

	if len(history) < 2 {
		return
	}
	t0 := history[0].Timestamp
	span := float32(history[len(history)-1].Timestamp.Sub(t0).Seconds())
	if span <= 0 {
		return
	}

	for c := range min(traces, len(traceColors)) {
		prev := fyne.NewPos(x, valueY(history[0].Channels[c], limit, y, h))
		for _, f := range history[1:] {
			px := x + float32(f.Timestamp.Sub(t0).Seconds())/span*w
			pos := fyne.NewPos(px, valueY(f.Channels[c], limit, y, h))
			line := canvas.NewLine(traceColors[c])
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
			prev = pos
		}
	}
}

// drawStatus draws trims, latency and trainer state under the plot.
func (r *monitorRenderer) drawStatus(x, y float32, st tx.Status) {
	text := canvas.NewText(formatTrims(st), statusColor)
	text.TextSize = 11
	text.Move(fyne.NewPos(x, y))
	r.objects = append(r.objects, text)

	c := statusColor
	if !st.TrainerValid || st.SendErrors > 0 {
		c = warnColor
	}
	text = canvas.NewText(formatLink(st), c)
	text.TextSize = 11
	text.Move(fyne.NewPos(x, y+16))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *monitorRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *monitorRenderer) Destroy() {}

// barSpan returns the left edge and width of a bar for v in a track starting
// at x with width w. Values beyond limit are drawn at the track end.
func barSpan(v int16, limit, x, w float32) (left, width float32) {
	half := w / 2
	frac := math32.Max(-1, math32.Min(1, float32(v)/limit))
	width = math32.Abs(frac) * half
	if frac < 0 {
		return x + half - width, width
	}
	return x + half, width
}

// valueY maps v to a y coordinate in a plot with +limit at top.
func valueY(v int16, limit, top, h float32) float32 {
	frac := math32.Max(-1, math32.Min(1, float32(v)/limit))
	return top + h/2 - frac*h/2
}

var stickNames = [input.NumSticks]string{"RUD", "ELE", "THR", "AIL"}

func formatTrims(st tx.Status) string {
	var b strings.Builder
	b.WriteString("Trims")
	for i, t := range st.Trims {
		fmt.Fprintf(&b, " %s %+d", stickNames[i], t)
	}
	return b.String()
}

func formatLink(st tx.Status) string {
	s := fmt.Sprintf("Latency %d..%d us", st.LatencyMin, st.LatencyMax)
	if st.SendErrors > 0 {
		s += fmt.Sprintf("  Send errors %d", st.SendErrors)
	}
	if !st.TrainerValid {
		return s + "  Trainer --"
	}
	s += fmt.Sprintf("  Trainer %+d %+d %+d %+d", st.Trainer[0], st.Trainer[1], st.Trainer[2], st.Trainer[3])
	if st.Desyncs > 0 {
		s += fmt.Sprintf("  Desyncs %d", st.Desyncs)
	}
	return s
}
