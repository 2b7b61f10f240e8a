package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/i474232898/aqi-nextday/internal/airquality"
	"github.com/i474232898/aqi-nextday/internal/auditlog"
	"github.com/i474232898/aqi-nextday/internal/calendar"
	"github.com/i474232898/aqi-nextday/internal/config"
	"github.com/i474232898/aqi-nextday/internal/model"
	"github.com/i474232898/aqi-nextday/internal/pipeline"
	"github.com/i474232898/aqi-nextday/internal/prediction"
	"github.com/i474232898/aqi-nextday/internal/quota"
	"github.com/i474232898/aqi-nextday/internal/store"
	"github.com/i474232898/aqi-nextday/internal/weather"
	"github.com/i474232898/aqi-nextday/internal/weather/providers"
)

// components is everything a command may need, built once from config.
type components struct {
	cfg       *config.AppConfig
	history   airquality.Source
	assembler *pipeline.Assembler
	tracker   *quota.Tracker
	audit     *auditlog.Logger
	service   *prediction.Service

	closers []func(context.Context) error
}

func (c *components) Close(ctx context.Context) {
	for _, fn := range c.closers {
		if err := fn(ctx); err != nil {
			log.Printf("ERROR: closing: %v", err)
		}
	}
}

// build wires the pipeline. The model is only loaded when withModel is set.
func build(ctx context.Context, cfg *config.AppConfig, withModel bool) (*components, error) {
	c := &components{cfg: cfg}
	a := cfg.Artifacts

	// Weather and history fetches carry no timeout unless FETCH_TIMEOUT is set.
	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}
	storeClient := &http.Client{Timeout: cfg.StoreTimeout}

	if cfg.AQIHistoryURL == "" {
		log.Printf("ERROR: AQI_HISTORY_URL or SHEET_ID is not set; feature assembly will fail")
	}
	c.history = airquality.NewSheetSource(fetchClient, cfg.AQIHistoryURL, cfg.AQIValueColumn)

	provider := providers.NewVisualCrossingProvider(fetchClient, cfg.VisualCrossingAPIKey, cfg.VisualCrossingBaseURL)
	holidays, err := calendar.LoadHolidays(cfg.HolidaysPath)
	if err != nil {
		return nil, err
	}
	c.assembler = pipeline.NewAssembler(
		weather.NewBuilder(provider, cfg.Station, a.RawWeatherCols, a.WeatherCols),
		airquality.NewBuilder(c.history, a.AQICols),
		calendar.NewBuilder(holidays, a.DateCols),
	)

	quotaStore, logStore, err := c.openStores(ctx, storeClient)
	if err != nil {
		return nil, err
	}
	c.tracker = quota.NewTracker(quotaStore, cfg.MaxQueries, cfg.Location)
	c.audit = auditlog.NewLogger(logStore, cfg.Location, cfg.ZoneLabel)

	if withModel {
		m, err := loadModel(cfg, fetchClient)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		c.service = prediction.NewService(c.assembler, m, a.SelectedFeatures, c.tracker, c.audit)
	}
	return c, nil
}

func (c *components) openStores(ctx context.Context, client *http.Client) (store.DocumentStore, store.DocumentStore, error) {
	cfg := c.cfg
	switch cfg.StoreBackend {
	case config.BackendJSONBin:
		return store.NewJSONBinStore(client, cfg.JSONBinBaseURL, cfg.QuotaBinID, cfg.JSONBinAPIKey),
			store.NewJSONBinStore(client, cfg.JSONBinBaseURL, cfg.LogBinID, cfg.JSONBinAPIKey),
			nil
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		client, err := store.Connect(connectCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		c.closers = append(c.closers, client.Disconnect)
		coll := client.Database(cfg.MongoDB).Collection("documents")
		return store.NewMongoStore(coll, "query_counter"), store.NewMongoStore(coll, "prediction_log"), nil
	default:
		log.Printf("INFO: using in-memory stores; usage and logs are lost on exit")
		q, _ := store.NewMemoryStore(nil)
		l, _ := store.NewMemoryStore(nil)
		return q, l, nil
	}
}

func loadModel(cfg *config.AppConfig, client *http.Client) (model.Regressor, error) {
	selected := cfg.Artifacts.SelectedFeatures
	if cfg.ModelURL != "" {
		log.Printf("INFO: using remote model at %s", cfg.ModelURL)
		return model.NewRemote(client, cfg.ModelURL, selected), nil
	}

	start := time.Now()
	e, err := model.LoadEnsemble(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if len(e.FeatureNames) > 0 && !slices.Equal(e.FeatureNames, selected) {
		return nil, fmt.Errorf("%w: model features do not match selected_features", model.ErrInvalidModel)
	}
	log.Printf("INFO: loaded model %s (%d trees) in %s", cfg.ModelPath, len(e.Trees), time.Since(start))
	return e, nil
}
