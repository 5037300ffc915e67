// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics defines the prometheus collectors for stores and
// tunneled requests.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	storeSubsystem  = "store"
	tunnelSubsystem = "tunnelhttp"
)

var (
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: storeSubsystem,
			Name:      "actions_total",
			Help:      "Count of actions applied by a store's reducer.",
		},
		[]string{"store"},
	)
	effectsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: storeSubsystem,
			Name:      "effects_started_total",
			Help:      "Count of effects subscribed by a store.",
		},
		[]string{"store"},
	)
	effectsOutstanding = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: storeSubsystem,
			Name:      "effects_outstanding",
			Help:      "Effects subscribed by a store that have not completed.",
		},
		[]string{"store"},
	)
	resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: tunnelSubsystem,
			Name:      "results_total",
			Help:      "Count of request results emitted by retriable tunneled requests, by result kind.",
		},
		[]string{"result"},
	)
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: tunnelSubsystem,
			Name:      "calls_total",
			Help:      "Count of HTTP calls executed through the tunnel, by status code (0 for transport failures).",
		},
		[]string{"code"},
	)
)

var registerMetrics sync.Once

// Register registers all collectors on reg. Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(actionsTotal)
		reg.MustRegister(effectsStartedTotal)
		reg.MustRegister(effectsOutstanding)
		reg.MustRegister(resultsTotal)
		reg.MustRegister(callsTotal)
	})
}

// RecordAction counts one reduced action.
func RecordAction(store string) {
	actionsTotal.WithLabelValues(store).Inc()
}

// RecordEffectStarted counts a subscribed effect and raises the outstanding gauge.
func RecordEffectStarted(store string) {
	effectsStartedTotal.WithLabelValues(store).Inc()
	effectsOutstanding.WithLabelValues(store).Inc()
}

// RecordEffectFinished lowers the outstanding gauge.
func RecordEffectFinished(store string) {
	effectsOutstanding.WithLabelValues(store).Dec()
}

// RecordResult counts one emitted request result.
func RecordResult(kind string) {
	resultsTotal.WithLabelValues(kind).Inc()
}

// RecordCall counts one executed HTTP call.
func RecordCall(code string) {
	callsTotal.WithLabelValues(code).Inc()
}

// ActionsTotal exposes the actions counter for tests.
func ActionsTotal() *prometheus.CounterVec { return actionsTotal }

// ResultsTotal exposes the results counter for tests.
func ResultsTotal() *prometheus.CounterVec { return resultsTotal }
