//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/air-quality-advisor/internal/bootstrap"
	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
	"github.com/yanqian/air-quality-advisor/internal/domain/forecast"
	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
	"github.com/yanqian/air-quality-advisor/internal/domain/notification"
	"github.com/yanqian/air-quality-advisor/internal/infra/airvisual"
	"github.com/yanqian/air-quality-advisor/internal/infra/config"
	"github.com/yanqian/air-quality-advisor/internal/infra/supplemental"
	httpiface "github.com/yanqian/air-quality-advisor/internal/interface/http"
	"github.com/yanqian/air-quality-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideForecastConfig,
		provideHistoricalConfig,
		provideNotificationConfig,
		provideSensorClient,
		provideGenerationBackend,
		provideHistoryStore,
		provideHistoryArchive,
		providePruner,
		supplemental.NewSatellite,
		supplemental.NewWeatherModel,
		wire.Bind(new(airquality.SensorClient), new(*airvisual.Client)),
		wire.Bind(new(airquality.SatelliteSource), new(*supplemental.Satellite)),
		wire.Bind(new(airquality.WeatherModelSource), new(*supplemental.WeatherModel)),
		forecast.NewService,
		historical.NewService,
		notification.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
