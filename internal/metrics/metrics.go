// Package metrics exports simulation outcomes as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"ac_simulator/internal/model"
)

const namespace = "acsim"

// Outcome label values for simulations_total.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Recorder implements simulator.Callback.
type Recorder struct {
	runs        *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	dailyEnergy prometheus.Histogram
	lastTotal   prometheus.Gauge
	lastMeanCOP prometheus.Gauge
	lastActive  prometheus.Gauge
	lowCOP      prometheus.Counter
}

// New registers the simulation metrics with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_inputs_total",
			Help:      "Rejected simulation inputs by violated constraint.",
		}, []string{"constraint"}),
		dailyEnergy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "daily_energy_kwh",
			Help:      "Estimated daily consumption per simulation.",
			Buckets:   []float64{1, 5, 10, 15, 20, 30, 40, 60, 80},
		}),
		lastTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_total_energy_kwh",
			Help:      "Daily total of the most recent simulation.",
		}),
		lastMeanCOP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_mean_active_cop",
			Help:      "Mean active-hour COP of the most recent simulation with active hours.",
		}),
		lastActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_active_hours",
			Help:      "Active hours of the most recent simulation.",
		}),
		lowCOP: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_cop_warnings_total",
			Help:      "Simulations whose mean active COP fell below the advisory threshold.",
		}),
	}

	for _, c := range []prometheus.Collector{r.runs, r.rejected, r.dailyEnergy, r.lastTotal, r.lastMeanCOP, r.lastActive, r.lowCOP} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) OnReport(report model.SimulationReport) {
	r.runs.WithLabelValues(OutcomeOK).Inc()
	r.dailyEnergy.Observe(report.TotalEnergyKWh)
	r.lastTotal.Set(report.TotalEnergyKWh)
	r.lastActive.Set(float64(report.ActiveHours))
	if cop, err := report.MeanCOP(); err == nil {
		r.lastMeanCOP.Set(cop)
	}
	if report.LowCOP {
		r.lowCOP.Inc()
	}
}

func (r *Recorder) OnFailure(err error) {
	if !errors.Is(err, model.ErrInvalidInput) {
		r.runs.WithLabelValues(OutcomeError).Inc()
		return
	}
	r.runs.WithLabelValues(OutcomeInvalid).Inc()
	if c, ok := model.ConstraintOf(err); ok {
		r.rejected.WithLabelValues(string(c)).Inc()
	}
}

// RegisterClientGauge exposes a live count, such as connected websocket clients.
func RegisterClientGauge(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	}, func() float64 { return float64(count()) }))
}
