package nasc

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	outcomeConstructed = "constructed"
	outcomeCached      = "cached"
	outcomeVetoed      = "vetoed"
	outcomeDeclined    = "declined"
	outcomeInvoked     = "invoked"
)

type metrics struct {
	instantiations *prometheus.CounterVec
	methodCalls    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	instantiations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nasc",
		Name:      "instantiations_total",
		Help:      "Instantiate calls by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	methodCalls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nasc",
		Name:      "method_calls_total",
		Help:      "CallMethod calls by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	return &metrics{instantiations: instantiations, methodCalls: methodCalls}, nil
}

// registerCounterVec registers vec, reusing an identical collector that is
// already registered.
func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}

func (m *metrics) instantiation(outcome string) {
	if m == nil {
		return
	}
	m.instantiations.WithLabelValues(outcome).Inc()
}

func (m *metrics) methodCall(outcome string) {
	if m == nil {
		return
	}
	m.methodCalls.WithLabelValues(outcome).Inc()
}
