package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/username/daoledger/src/config"
	"github.com/username/daoledger/src/database"
	"github.com/username/daoledger/src/handlers"
	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/registry"
	"github.com/username/daoledger/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	serve := flag.Bool("serve", false, "start the HTTP API after the batch run")
	skipBatch := flag.Bool("skip-batch", false, "serve from the stored ledger without reprocessing")
	streams := flag.Bool("streams", true, "extend the service provider stream ledger")
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	database.InitDB(config.Cfg.DatabasePath)

	reg, err := registry.Load(
		config.Cfg.WalletRegistryPath,
		config.Cfg.TxOverridesPath,
		config.Cfg.AssetPricesPath,
	)
	if err != nil {
		logger.L.Error("Failed to load reference registries", "error", err)
		os.Exit(1)
	}

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	ledgerService := services.NewLedgerService(reg, reportCache)

	if !*skipBatch {
		if err := ledgerService.ProcessAllWallets(); err != nil {
			logger.L.Error("Per-wallet processing failed", "error", err)
			os.Exit(1)
		}
		if *streams {
			if err := ledgerService.ExtendServiceProviderStreams(time.Now()); err != nil {
				logger.L.Error("Stream extension failed", "error", err)
				os.Exit(1)
			}
		}
		if _, err := ledgerService.Consolidate(); err != nil {
			if errors.Is(err, services.ErrNoLedgers) {
				logger.L.Warn("Nothing to consolidate; no local ledgers were produced")
			} else {
				logger.L.Error("Consolidation failed", "error", err)
				os.Exit(1)
			}
		}
	}

	if !*serve {
		return
	}

	ledgerHandler := handlers.NewLedgerHandler(ledgerService)

	r := chi.NewRouter()
	r.Use(rateLimitMiddleware)
	r.Get("/quarters", ledgerHandler.HandleQuarters)
	r.Get("/data/big_picture", ledgerHandler.HandleBigPicture)
	r.Get("/data/{quarter}", ledgerHandler.HandleQuarterData)

	addr := ":" + config.Cfg.Port
	logger.L.Info("Starting server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.L.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
