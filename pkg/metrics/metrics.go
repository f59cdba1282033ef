// Package metrics exposes prometheus collectors for the activity engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	activitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_activities_recorded_total",
		Help: "Activities committed, by type",
	}, []string{"type"})

	notificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_notifications_created_total",
		Help: "Notification rows written by fan-out",
	})

	toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_interaction_toggles_total",
		Help: "Interaction toggles, by kind, direction and whether the state changed",
	}, []string{"kind", "direction", "applied"})

	feedQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "community_feed_query_duration_seconds",
		Help:    "Duration of feed page queries",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"sort"})
)

// ActivityRecorded counts one committed activity and its notifications
func ActivityRecorded(activityType string, notifications int64) {
	activitiesRecorded.WithLabelValues(activityType).Inc()
	if notifications > 0 {
		notificationsCreated.Add(float64(notifications))
	}
}

// Toggle counts one committed toggle call
func Toggle(kind string, on, applied bool) {
	direction := "off"
	if on {
		direction = "on"
	}
	toggles.WithLabelValues(kind, direction, strconv.FormatBool(applied)).Inc()
}

// FeedTimer starts a timer for a feed query; call ObserveDuration when done
func FeedTimer(sort string) *prometheus.Timer {
	return prometheus.NewTimer(feedQueryDuration.WithLabelValues(sort))
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
