package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/core/task"
	geminisvc "github.com/trezcool/mwalimu/services/gemini"
	logsvc "github.com/trezcool/mwalimu/services/logger"
	"github.com/trezcool/mwalimu/storage/database"
	"github.com/trezcool/mwalimu/storage/database/sqlxrepos"
	"github.com/trezcool/mwalimu/storage/fallback"
	"github.com/trezcool/mwalimu/storage/localstore"
	"github.com/trezcool/mwalimu/storage/supabase"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up the local store (settings + fallback data)
	local, err := localstore.Open(conf.Storage.LocalPath)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening local store: %v", err), err)
	}
	defer func() {
		if err = local.Close(); err != nil {
			dbLogger.Error("Failed to close local store", err)
		}
	}()

	backends := supabase.NewClientCache(conf.Supabase.Timeout)
	settingsSvc := settings.NewService(
		localstore.NewSettingsRepository(local),
		conf.DefaultPIN,
		backends.Invalidate, // drop the client of replaced credentials
	)

	// set up hosted storage
	stores, closer, err := setUpStores(conf, local, settingsSvc, backends, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closer.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	logger.Info(fmt.Sprintf("Using %q storage", stores.Name))

	// set up services
	kidSvc := kid.NewService(stores.Kids)
	taskSvc := task.NewService(stores.Tasks, stores.Kids)
	chatSvc := chat.NewService(geminisvc.NewClient(conf.Gemini), conf.Gemini.Model)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(stores.Name)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			KidSvc:      kidSvc,
			TaskSvc:     taskSvc,
			SettingsSvc: settingsSvc,
			ChatSvc:     chatSvc,
			Backends:    backends,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type closerFunc func() error

func (fn closerFunc) Close() error { return fn() }

var noopCloser = closerFunc(func() error { return nil })

// setUpStores picks the storage driver; hosted drivers fall back to the local store.
func setUpStores(
	conf *core.Config,
	local *localstore.DB,
	settingsSvc settings.Service,
	backends *supabase.ClientCache,
	logger core.Logger,
) (fallback.Stores, io.Closer, error) {
	localStores := fallback.Stores{
		Name:  core.StorageDriverLocal,
		Kids:  localstore.NewKidRepository(local),
		Tasks: localstore.NewTaskRepository(local),
	}
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	switch conf.Storage.Driver {
	case core.StorageDriverLocal, "":
		return localStores, noopCloser, nil

	case core.StorageDriverPostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return fallback.Stores{}, nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return fallback.Stores{}, nil, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return fallback.Stores{}, nil, errors.Wrap(err, "migrating database")
		}
		primary := fallback.Stores{
			Name:  core.StorageDriverPostgres,
			Kids:  sqlxrepos.NewKidRepository(db),
			Tasks: sqlxrepos.NewTaskRepository(db),
		}
		ping := func(ctx context.Context) error { return database.Ping(ctx, db) }
		return fallback.Select(ctx, primary, ping, localStores, logger), db, nil

	case core.StorageDriverSupabase:
		clients := backends.Source(backendCredentials(conf, settingsSvc))
		primary := fallback.Stores{
			Name:  core.StorageDriverSupabase,
			Kids:  supabase.NewKidRepository(clients),
			Tasks: supabase.NewTaskRepository(clients),
		}
		err := supabase.Ping(ctx, clients)
		if errors.Cause(err) == core.ErrMissingBackendKey {
			// serve from the local store until credentials are saved through the settings API
			logger.Warn("no backend credentials yet, using local store", err)
			return fallback.Compose(primary, localStores, logger), noopCloser, nil
		}
		ping := func(context.Context) error { return err }
		return fallback.Select(ctx, primary, ping, localStores, logger), noopCloser, nil
	}
	return fallback.Stores{}, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

// backendCredentials prefers the configured credentials over the ones saved in the settings.
func backendCredentials(conf *core.Config, settingsSvc settings.Service) supabase.CredentialsFunc {
	return func(ctx context.Context) (string, string, error) {
		if conf.Supabase.URL != "" && conf.Supabase.Key != "" {
			return conf.Supabase.URL, conf.Supabase.Key, nil
		}
		return settingsSvc.BackendCredentials(ctx)
	}
}
