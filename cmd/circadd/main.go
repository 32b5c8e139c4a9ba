package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sundholm/circad/internal/circad"
	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/curve"
	"github.com/sundholm/circad/internal/hue"
	"github.com/sundholm/circad/internal/override"
	"github.com/sundholm/circad/internal/repos"
	"github.com/sundholm/circad/internal/sun"
)

func main() {

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		ReportCaller:    true,
	})
	logger.Info("circadd starting")

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
	if !hasFix {
		logger.Warn("no geoLocation configured, no targets will be computed until one is set")
	}
	sunClock := sun.NewGeoClock(lat, lng, hasFix)
	if rise, set, err := sunClock.SunriseSunset(time.Now()); err == nil {
		logger.Info("Calculated local sunrise and sunset",
			"sunrise", rise.Local().Format("15:04"),
			"sunset", set.Local().Format("15:04"),
		)
	}

	// create/wire up services
	snapshot := cfgStore.Snapshot()
	engine := curve.NewEngine(sunClock, snapshot.Levels)
	tracker := override.NewTracker(logger, lightRepo, snapshot.Overrides)
	apiService := hue.NewHueAPIService(logger)
	eventConsumer := hue.NewHueEventConsumer(logger)

	app := circad.NewCircad(logger, cfgStore, engine, tracker, lightRepo, apiService, eventConsumer, nil)

	ctx, cancel := context.WithCancel(context.Background())

	if err := app.Initialise(ctx); err != nil {
		logger.Fatal(err)
	}

	// start the adaptation loop
	go app.Run(ctx)

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	<-quitChannel

	// cleanup before exit
	cancel()
	fmt.Println("circad is closing")
}
