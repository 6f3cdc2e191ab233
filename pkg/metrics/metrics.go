// Package metrics exports script activity as Prometheus metrics.
//
// A Collector is an script.EventHandler: pass it with script.WithEventHandler
// and call Watch once the script exists to publish its runtime gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/scriptd/pkg/script"
)

// Namespace prefixes every metric name.
const Namespace = "scriptd"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector counts transitions and task executions and tracks the current state.
type Collector struct {
	script.BaseEventHandler

	reg         prometheus.Registerer
	transitions *prometheus.CounterVec
	executions  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	state       *prometheus.GaugeVec
}

// NewCollector creates a collector and registers it on reg. A nil reg means
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		reg: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transitions_total",
				Help:      "Lifecycle signals fired, by signal and callback result",
			},
			[]string{"signal", "result"},
		),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "task_executions_total",
				Help:      "Task executions, by task and result",
			},
			[]string{"task", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "task_duration_seconds",
				Help:      "Execution duration per task",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "state",
				Help:      "1 for the current lifecycle state, 0 otherwise",
			},
			[]string{"state"},
		),
	}

	for _, col := range []prometheus.Collector{c.transitions, c.executions, c.duration, c.state} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	c.setState(script.StateStopped)
	return c, nil
}

// Watch registers gauges reading the runtime of s.
func (c *Collector) Watch(s *script.Script) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "total_runtime_seconds",
			Help:      "Seconds since the script first started",
		}, func() float64 { return float64(s.TotalRuntimeSeconds()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_runtime_seconds",
			Help:      "Seconds since the script first started, excluding suspensions",
		}, func() float64 { return float64(s.ActiveRuntimeSeconds()) }),
	}
	for _, g := range gauges {
		if err := c.reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// OnStateChange implements script.EventHandler.
func (c *Collector) OnStateChange(e script.StateChangeEvent) {
	c.setState(e.Current)
}

// OnTransition implements script.EventHandler.
func (c *Collector) OnTransition(e script.TransitionEvent) {
	c.transitions.WithLabelValues(e.Signal.String(), result(e.Err)).Inc()
}

// OnTaskExecuted implements script.EventHandler.
func (c *Collector) OnTaskExecuted(e script.TaskEvent) {
	c.executions.WithLabelValues(e.Name, result(e.Err)).Inc()
	c.duration.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
}

func (c *Collector) setState(current script.State) {
	for _, st := range []script.State{
		script.StateStopped, script.StateRunning, script.StateSuspended, script.StateStopping,
	} {
		v := 0.0
		if st == current {
			v = 1
		}
		c.state.WithLabelValues(st.String()).Set(v)
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
