package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/khaledhikmat/gaze-go/mode"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/service/broadcast"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/data"
	"github.com/khaledhikmat/gaze-go/service/inference"
	"github.com/khaledhikmat/gaze-go/service/lgr"
	"github.com/khaledhikmat/gaze-go/service/storage"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"quiz":    mode.Quiz,
	"monitor": mode.Monitor,
	"still":   mode.Still,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			// A missing .env is fine: defaults and the real environment apply
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
		lgr.SetLevel(os.Getenv("LOG_LEVEL"))
	}

	modeType := "quiz"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
		args = args[1:]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		os.Exit(2)
	}

	// Create the services needed for the mode processor
	// Config service
	cfgSvc := config.NewEnv()
	// Data service
	dataSvc, err := newDataService(cfgSvc)
	if err != nil {
		lgr.Logger.Error("error creating data service", slog.Any("error", xerrors.New(err.Error())))
		os.Exit(1)
	}
	// Storage service
	storageSvc := storage.NewLocal(cfgSvc)
	// Inference service
	inferenceSvc := inference.NewLocal(cfgSvc)
	// Broadcast service
	broadcastSvc := broadcast.NewNoop()
	if cfgSvc.GetBroadcastAddress() != "" && modeType == "monitor" {
		broadcastSvc, err = broadcast.NewWebsocket(canxCtx, cfgSvc, inferenceSvc.SetThreshold)
		if err != nil {
			lgr.Logger.Error("error creating broadcast service", slog.Any("error", xerrors.New(err.Error())))
			os.Exit(1)
		}
	}

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      dataSvc,
		StorageSvc:   storageSvc,
		InferenceSvc: inferenceSvc,
		BroadcastSvc: broadcastSvc,
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Decide on streamers
	streamers := []pipeline.Streamer{
		pipeline.GazeStreamer,
	}

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, streamers, pipeline.DirectionReporter, args)
	}()

	// Wait for cancellation or mode proc
	exitCode := 0
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"main context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			exitCode = 1
			lgr.Logger.Error(
				"mode processor exited",
				slog.String("mode", modeType),
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		// The mode is done; nothing is left to wait for
		canxFn()
		shutdown(dataSvc, broadcastSvc, exitCode)
	}

	lgr.Logger.Info(
		"main is waiting for the mode processor to exit",
	)

	// Wait in a non-blocking way for `waitOnShutdown` for the mode processor to exit
	// This is needed because the go routines may need to report errors as they are existing
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			exitCode = 1
			lgr.Logger.Error(
				"mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}

	shutdown(dataSvc, broadcastSvc, exitCode)
}

func newDataService(cfgSvc config.IService) (data.IService, error) {
	switch cfgSvc.GetDataStore() {
	case "sqlite":
		return data.NewSqlite(cfgSvc)
	case "files":
		return data.NewFilesDB(cfgSvc), nil
	default:
		return nil, xerrors.New("unknown data store " + cfgSvc.GetDataStore())
	}
}

// shutdown releases the services and exits; deferred calls do not run
// after os.Exit.
func shutdown(dataSvc data.IService, broadcastSvc broadcast.IService, code int) {
	broadcastSvc.Close()
	dataSvc.Close()
	os.Exit(code)
}
