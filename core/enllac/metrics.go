package enllac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operacionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbres_enllac_operacions_total",
		Help: "Operacions d'enllaç d'arbres per operació i resultat",
	}, []string{"operacio", "resultat"})

	clonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbres_enllac_clons_total",
		Help: "Persones clonades, actualitzades o esborrades per operació",
	}, []string{"operacio"})

	duradaSegons = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbres_enllac_durada_segons",
		Help:    "Durada de les operacions d'enllaç en segons",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms a ~2s
	}, []string{"operacio"})
)
