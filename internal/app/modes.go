package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/costsim/internal/book"
	"github.com/alanyoungcy/costsim/internal/display"
	"github.com/alanyoungcy/costsim/internal/domain"
	"github.com/alanyoungcy/costsim/internal/feed"
	"github.com/alanyoungcy/costsim/internal/metrics"
	"github.com/alanyoungcy/costsim/internal/model"
	"github.com/alanyoungcy/costsim/internal/pipeline"
)

// LiteMode runs the feed, the pipeline, and the console sink with no
// external stores.
func (a *App) LiteMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting lite mode")

	sinks := []pipeline.Sink{display.NewConsoleSink(os.Stdout)}
	return a.run(ctx, deps, sinks, false)
}

// FullMode runs everything lite mode does plus the Postgres history sink,
// the Redis publish sink, and the S3 archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	switch rec, err := lastEstimate(ctx, deps); {
	case err == nil:
		a.logger.InfoContext(ctx, "resuming estimate history",
			slog.Time("last_estimate", rec.CreatedAt))
	case errors.Is(err, domain.ErrNotFound):
		a.logger.InfoContext(ctx, "no prior estimate history")
	default:
		a.logger.WarnContext(ctx, "could not read last estimate",
			slog.String("error", err.Error()))
	}

	sinks := []pipeline.Sink{
		display.NewConsoleSink(os.Stdout),
		pipeline.NewStoreSink(deps.EstimateStore),
		pipeline.NewPublishSink(deps.EstimateCache, deps.EstimateBus, a.cfg.Pipeline.EstimateChannel),
	}
	return a.run(ctx, deps, sinks, true)
}

// run wires the pipeline and feed and blocks until the context is
// cancelled or a subsystem fails.
func (a *App) run(ctx context.Context, deps *Dependencies, sinks []pipeline.Sink, archive bool) error {
	g, ctx := errgroup.WithContext(ctx)

	met := metrics.New()

	p, err := a.buildPipeline(met)
	if err != nil {
		return err
	}
	p.SetInput(domain.OperatorInput{
		Quantity:   a.cfg.Input.Quantity,
		FeeTier:    a.cfg.Input.FeeTier,
		Volatility: a.cfg.Input.Volatility,
	})

	// Feed. A handler is called inline on the receive goroutine, so message
	// order is preserved end to end.
	f := feed.New(feed.Config{
		URL:            a.cfg.Feed.URL,
		Heartbeat:      a.cfg.Feed.Heartbeat.Duration,
		BackoffFloor:   a.cfg.Feed.BackoffFloor.Duration,
		BackoffCeiling: a.cfg.Feed.BackoffCeiling.Duration,
	}, p.HandleMessage, a.logger)
	f.OnRetry(met.ReconnectsTotal.Inc)
	f.OnDown(func(reason error) {
		if deps.Notifier != nil {
			_ = deps.Notifier.Notify(context.Background(),
				"costsim feed down",
				fmt.Sprintf("orderbook feed lost connection: %v", reason),
			)
		}
	})
	g.Go(func() error {
		defer f.Stop()
		return f.Run(ctx)
	})

	// Consumer draining the handoff queue into the sinks.
	consumer := pipeline.NewConsumer(p.Queue(), sinks, a.cfg.Pipeline.DrainInterval.Duration, a.logger)
	g.Go(func() error {
		return consumer.Run(ctx)
	})

	// Archiver, full mode only.
	if archive && deps.EstimateStore != nil && deps.BlobWriter != nil {
		archiver := pipeline.NewArchiver(deps.EstimateStore, deps.BlobWriter, pipeline.ArchiverConfig{
			Retention: a.cfg.Pipeline.ArchiveRetention.Duration,
			Interval:  a.cfg.Pipeline.ArchiveInterval.Duration,
			BatchSize: a.cfg.Pipeline.ArchiveBatchSize,
		}, a.logger)
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	// Prometheus endpoint.
	if a.cfg.Metrics.Enabled {
		g.Go(func() error {
			return met.Serve(ctx, a.cfg.Metrics.Addr)
		})
	}

	return g.Wait()
}

// lastEstimate returns the most recent persisted estimate, preferring the
// cache over the store. domain.ErrNotFound means a clean history.
func lastEstimate(ctx context.Context, deps *Dependencies) (domain.CostEstimateRecord, error) {
	if deps.EstimateCache != nil {
		rec, err := deps.EstimateCache.GetLatest(ctx)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.CostEstimateRecord{}, err
		}
	}
	if deps.EstimateStore != nil {
		return deps.EstimateStore.Latest(ctx)
	}
	return domain.CostEstimateRecord{}, domain.ErrNotFound
}

// buildPipeline assembles the validator and estimators from model config.
func (a *App) buildPipeline(met *metrics.Set) (*pipeline.Pipeline, error) {
	impact, err := model.NewAlmgrenChriss(a.cfg.Model.Volatility, a.cfg.Model.Eta, a.cfg.Model.Gamma)
	if err != nil {
		return nil, fmt.Errorf("app: build impact model: %w", err)
	}

	return pipeline.New(
		book.NewValidator(a.logger),
		model.NewSlippageEstimator(a.cfg.Model.SlippageWindow, a.cfg.Model.SlippageWarmup, nil),
		model.NewMakerTakerEstimator(a.cfg.Model.MakerTakerWindow, a.cfg.Model.MakerTakerWarmup, nil),
		impact,
		model.NewFeeCalculator(),
		a.cfg.Pipeline.QueueCapacity,
		met,
		a.logger,
	), nil
}
