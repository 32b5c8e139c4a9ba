package main

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sundholm/circad/internal/circad"
	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/curve"
	"github.com/sundholm/circad/internal/hue"
	"github.com/sundholm/circad/internal/models"
	"github.com/sundholm/circad/internal/override"
	"github.com/sundholm/circad/internal/repos"
	"github.com/sundholm/circad/internal/sun"
	"github.com/sundholm/circad/internal/tui"
)

func main() {

	// the terminal belongs to the TUI, logs go to a rotated file
	logger := log.NewWithOptions(&lumberjack.Logger{
		Filename: "logs/circad.log",
		MaxAge:   3,
	}, log.Options{
		Level:      log.InfoLevel,
		TimeFormat: "2006/01/02 15:04:05",
	})
	logger.Info("circad starting")

	if err := config.Initialise(); err != nil {
		logger.Fatal(err)
	}
	cfgStore, err := config.NewStore(logger)
	if err != nil {
		logger.Fatal(err)
	}

	db, err := sql.Open("sqlite3", "file:circad.db")
	if err != nil {
		logger.Fatal(err)
	}
	defer db.Close()

	lightRepo, err := repos.NewLightRepo(logger, db)
	if err != nil {
		logger.Fatal(err)
	}

	lat, lng, hasFix := config.GeoLocation()
	sunClock := sun.NewGeoClock(lat, lng, hasFix)

	// create/wire up services
	snapshot := cfgStore.Snapshot()
	engine := curve.NewEngine(sunClock, snapshot.Levels)
	tracker := override.NewTracker(logger, lightRepo, snapshot.Overrides)
	apiService := hue.NewHueAPIService(logger)
	eventConsumer := hue.NewHueEventConsumer(logger)

	lightsChannel := make(chan []models.Light, 1)
	app := circad.NewCircad(logger, cfgStore, engine, tracker, lightRepo, apiService, eventConsumer, lightsChannel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Initialise(ctx); err != nil {
		logger.Fatal(err)
	}

	// start the adaptation loop
	go app.Run(ctx)

	// run the terminal UI
	t := tui.NewCircadTUI()
	go func() {
		for lights := range lightsChannel {
			t.RefreshLights(lights)
		}
	}()

	if err := t.Run(); err != nil {
		logger.Error(err)
	}
	logger.Info("circad is closing")
}
