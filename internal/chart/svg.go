// Package chart renders a simulation report as a dual-axis SVG: temperatures on
// the left axis, hourly energy on the right, active hours shaded.
package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"ac_simulator/internal/model"
)

const (
	outdoorColor = "orange"
	indoorColor  = "blue"
	energyColor  = "green"
)

// Options controls the rendered size and title.
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions returns a 800x420 chart.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 420, Title: "A/C hourly consumption"}
}

type frame struct {
	left, right, top, bottom float64
	tMin, tMax               float64
	eMax                     float64
}

func (f frame) x(hour float64) float64 {
	return f.left + (hour+0.5)/model.HoursPerDay*(f.right-f.left)
}

func (f frame) yTemp(v float64) float64 {
	return f.bottom - (v-f.tMin)/(f.tMax-f.tMin)*(f.bottom-f.top)
}

func (f frame) yEnergy(v float64) float64 {
	return f.bottom - v/f.eMax*(f.bottom-f.top)
}

// Render writes r as an SVG document.
func Render(w io.Writer, r model.SimulationReport, opts Options) error {
	if len(r.Hours) != model.HoursPerDay {
		return model.Invalid(model.ConstraintHourCount, "chart needs %d hours, report has %d", model.HoursPerDay, len(r.Hours))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	f := newFrame(r, opts)
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="11">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")
	if opts.Title != "" {
		fmt.Fprintf(&b, `<text x="%.1f" y="20" text-anchor="middle" font-size="14">%s</text>`+"\n",
			float64(opts.Width)/2, html.EscapeString(opts.Title))
	}

	// Active hours
	slot := (f.right - f.left) / model.HoursPerDay
	for _, h := range r.Hours {
		if !h.Active {
			continue
		}
		fmt.Fprintf(&b, `<rect class="active" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.1"/>`+"\n",
			f.left+float64(h.Hour)*slot, f.top, slot, f.bottom-f.top, energyColor)
	}

	writeAxes(&b, f)

	outdoor := make([]float64, len(r.Hours))
	indoor := make([]float64, len(r.Hours))
	energy := make([]float64, len(r.Hours))
	for i, h := range r.Hours {
		outdoor[i] = f.yTemp(h.OutdoorTempC)
		indoor[i] = f.yTemp(h.IndoorSetpointC)
		energy[i] = f.yEnergy(h.EnergyKWh)
	}
	writeLine(&b, f, "outdoor", outdoor, outdoorColor, "")
	writeLine(&b, f, "indoor", indoor, indoorColor, "6 4")
	writeLine(&b, f, "energy", energy, energyColor, "")

	writeLegend(&b, f)
	b.WriteString("</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing SVG: %w", err)
	}
	return nil
}

func newFrame(r model.SimulationReport, opts Options) frame {
	f := frame{
		left:   60,
		right:  float64(opts.Width) - 70,
		top:    40,
		bottom: float64(opts.Height) - 50,
		tMin:   math.Inf(1),
		tMax:   math.Inf(-1),
	}
	for _, h := range r.Hours {
		f.tMin = math.Min(f.tMin, math.Min(h.OutdoorTempC, h.IndoorSetpointC))
		f.tMax = math.Max(f.tMax, math.Max(h.OutdoorTempC, h.IndoorSetpointC))
		f.eMax = math.Max(f.eMax, h.EnergyKWh)
	}
	f.tMin = math.Floor(f.tMin) - 1
	f.tMax = math.Ceil(f.tMax) + 1
	if f.eMax <= 0 {
		f.eMax = 1
	} else {
		f.eMax *= 1.1
	}
	return f
}

func writeAxes(b *strings.Builder, f frame) {
	fmt.Fprintf(b, `<g stroke="black" stroke-width="1">`)
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, f.left, f.bottom, f.right, f.bottom)
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, f.left, f.top, f.left, f.bottom)
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, f.right, f.top, f.right, f.bottom)
	b.WriteString("</g>\n")

	for h := 0; h < model.HoursPerDay; h += 2 {
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle">%d</text>`+"\n", f.x(float64(h)), f.bottom+15, h)
	}
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle">Hour</text>`+"\n", (f.left+f.right)/2, f.bottom+35)

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		frac := float64(i) / ticks
		t := f.tMin + frac*(f.tMax-f.tMin)
		e := frac * f.eMax
		y := f.bottom - frac*(f.bottom-f.top)
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="end">%.1f</text>`+"\n", f.left-6, y+4, t)
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="start">%.2f</text>`+"\n", f.right+6, y+4, e)
	}

	midY := (f.top + f.bottom) / 2
	fmt.Fprintf(b, `<text x="15" y="%.1f" text-anchor="middle" transform="rotate(-90 15 %.1f)">Temperature (°C)</text>`+"\n", midY, midY)
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle" transform="rotate(90 %.1f %.1f)">Hourly energy (kWh)</text>`+"\n",
		f.right+55, midY, f.right+55, midY)
}

func writeLine(b *strings.Builder, f frame, id string, ys []float64, color, dash string) {
	points := make([]string, len(ys))
	for i, y := range ys {
		points[i] = fmt.Sprintf("%.1f,%.1f", f.x(float64(i)), y)
	}
	fmt.Fprintf(b, `<polyline id="%s" fill="none" stroke="%s" stroke-width="2"`, id, color)
	if dash != "" {
		fmt.Fprintf(b, ` stroke-dasharray="%s"`, dash)
	}
	fmt.Fprintf(b, ` points="%s"/>`+"\n", strings.Join(points, " "))
}

func writeLegend(b *strings.Builder, f frame) {
	entries := []struct {
		label, color, dash string
		x                  float64
	}{
		{"T_ext (°C)", outdoorColor, "", f.left + 10},
		{"T_int (°C)", indoorColor, "6 4", f.left + 110},
		{"Energy (kWh)", energyColor, "", f.right - 110},
	}
	for _, e := range entries {
		y := f.top + 12
		fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"`, e.x, y, e.x+20, y, e.color)
		if e.dash != "" {
			fmt.Fprintf(b, ` stroke-dasharray="%s"`, e.dash)
		}
		b.WriteString("/>")
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f">%s</text>`+"\n", e.x+25, y+4, e.label)
	}
}
