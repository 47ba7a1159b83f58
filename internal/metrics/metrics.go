package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exporta contadores del cuestionario a Prometheus. Un *Metrics nil
// es válido y no registra nada.
type Metrics struct {
	transitions   *prometheus.CounterVec
	appends       *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	selections    *prometheus.CounterVec
	activeSession prometheus.Gauge
}

// New registra las métricas en reg (DefaultRegisterer si es nil).
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "blum"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_transitions_total",
			Help:      "Wizard transitions by kind and result.",
		}, []string{"transition", "result"}),
		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_appends_total",
			Help:      "Spreadsheet append attempts by submission kind and outcome.",
		}, []string{"kind", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_writes_total",
			Help:      "Rows written to the local fallback cache.",
		}, []string{"kind"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_selections_total",
			Help:      "Protocols selected for completed questionnaires.",
		}, []string{"protocol"}),
		activeSession: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wizard_active_sessions",
			Help:      "Wizard sessions currently held in memory.",
		}),
	}

	var err error
	if m.transitions, err = registerCounterVec(reg, m.transitions); err != nil {
		return nil, err
	}
	if m.appends, err = registerCounterVec(reg, m.appends); err != nil {
		return nil, err
	}
	if m.fallbacks, err = registerCounterVec(reg, m.fallbacks); err != nil {
		return nil, err
	}
	if m.selections, err = registerCounterVec(reg, m.selections); err != nil {
		return nil, err
	}
	if err := reg.Register(m.activeSession); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register active sessions gauge: %w", err)
		}
		existing, ok := are.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return nil, fmt.Errorf("register active sessions gauge: %w", err)
		}
		m.activeSession = existing
	}
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register counter: %w", err)
	}
	return c, nil
}

// Transition cuenta un advance/retreat con su resultado (ok, invalid, rejected).
func (m *Metrics) Transition(transition, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, result).Inc()
}

func (m *Metrics) Append(kind string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.appends.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Fallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) Selection(protocol string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(protocol).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSession.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSession.Dec()
}

// RegisterFallbackEvictions expone como contador las entradas que el caché de
// fallback en memoria descartó por el tope.
func RegisterFallbackEvictions(namespace string, reg prometheus.Registerer, evicted func() uint64) error {
	if namespace == "" {
		namespace = "blum"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_evictions_total",
		Help:      "Fallback entries dropped by the in-memory cache limit.",
	}, func() float64 { return float64(evicted()) })
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("register fallback evictions: %w", err)
	}
	return nil
}
