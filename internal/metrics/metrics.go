// Package metrics exposes renderer and world counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "voxelshade"

// Metrics groups every collector. The zero value is not usable; call New.
type Metrics struct {
	ChunkRebuilds    prometheus.Counter
	ChunksLoaded     prometheus.Gauge
	FacesEmitted     prometheus.Gauge
	TilePoolCapacity prometheus.Gauge
	TilePoolInUse    prometheus.Gauge
	TilePoolGrows    prometheus.Counter
	FrameSeconds     prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunkRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_rebuilds_total",
			Help:      "Chunk mesh and collider rebuilds.",
		}),
		ChunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Chunks currently held by the chunk manager.",
		}),
		FacesEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "faces_emitted",
			Help:      "Faces across all uploaded chunk meshes.",
		}),
		TilePoolCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tile_pool_capacity",
			Help:      "Tiles backing the sparse block volume.",
		}),
		TilePoolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tile_pool_in_use",
			Help:      "Tiles mapped to a chunk.",
		}),
		TilePoolGrows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_pool_grows_total",
			Help:      "Tile pool resizes.",
		}),
		FrameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_seconds",
			Help:      "Wall time of one rendered frame.",
			Buckets:   []float64{0.002, 0.004, 0.008, 0.0167, 0.033, 0.066, 0.1, 0.25},
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ChunkRebuilds, m.ChunksLoaded, m.FacesEmitted,
			m.TilePoolCapacity, m.TilePoolInUse, m.TilePoolGrows,
			m.FrameSeconds,
		)
	}
	return m
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
