// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/contract-coordinator/pkg/config"
	"github.com/certen/contract-coordinator/pkg/database"
	"github.com/certen/contract-coordinator/pkg/keyring"
	"github.com/certen/contract-coordinator/pkg/localstore"
	"github.com/certen/contract-coordinator/pkg/remotestore"
	"github.com/certen/contract-coordinator/pkg/replicatedstore"
	"github.com/certen/contract-coordinator/pkg/resolver"
	"github.com/certen/contract-coordinator/pkg/server"
	"github.com/certen/contract-coordinator/pkg/statemachine"
	"github.com/certen/contract-coordinator/pkg/users"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[ContractCoordinator] ", log.LstdFlags)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	keys := keyring.New(filepath.Join(cfg.DataDir, "keys"))
	if err := keys.Restore(); err != nil {
		log.Fatalf("failed to restore key registry: %v", err)
	}

	local, err := localstore.New(filepath.Join(cfg.DataDir, "contracts"))
	if err != nil {
		log.Fatalf("failed to open local contract store: %v", err)
	}

	remote := remotestore.New(remotestore.Config{
		BaseURL: cfg.RemoteURL,
		Enabled: cfg.RemoteURL != "",
		Timeout: time.Duration(cfg.RemoteTimeout) * time.Second,
		Logger:  log.New(os.Stdout, "[RemoteStore] ", log.LstdFlags),
	})

	store := replicatedstore.New(keys, local, remote, log.New(os.Stdout, "[ReplicatedStore] ", log.LstdFlags))

	var auditClient *database.Client
	if cfg.DatabaseURL != "" {
		auditClient, err = database.NewClient(cfg, database.WithLogger(log.New(os.Stdout, "[Audit] ", log.LstdFlags)))
		if err != nil {
			log.Fatalf("failed to connect to audit database: %v", err)
		}
		defer auditClient.Close()

		migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := auditClient.MigrateUp(migrateCtx); err != nil {
			migrateCancel()
			log.Fatalf("failed to run audit migrations: %v", err)
		}
		migrateCancel()
	} else {
		logger.Println("DATABASE_URL not set - audit trail recording disabled")
	}

	machineOpts := []statemachine.Option{}
	if auditClient != nil {
		machineOpts = append(machineOpts, statemachine.WithAudit(auditClient))
	}
	machine := statemachine.New(store, log.New(os.Stdout, "[StateMachine] ", log.LstdFlags), machineOpts...)

	userDir, err := users.New(filepath.Join(cfg.DataDir, "users"))
	if err != nil {
		log.Fatalf("failed to open user directory: %v", err)
	}

	effectResolver := resolver.New(machine, userDir)

	healthHandlers := server.NewHealthHandlers(log.New(os.Stdout, "[Health] ", log.LstdFlags), auditClient)
	userHandlers := server.NewUserHandlers(userDir, log.New(os.Stdout, "[Users] ", log.LstdFlags))
	contractHandlers := server.NewContractHandlers(machine, log.New(os.Stdout, "[Contracts] ", log.LstdFlags))
	spellHandlers := server.NewSpellHandlers(effectResolver, log.New(os.Stdout, "[Resolver] ", log.LstdFlags))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.HandleHealth)

	mux.HandleFunc("/user/create", userHandlers.HandleCreate)
	mux.HandleFunc("/user/", userHandlers.HandleGet)

	mux.HandleFunc("/contracts", contractHandlers.HandleList)
	mux.HandleFunc("/contract", contractHandlers.HandleCreate)
	mux.HandleFunc("/contract/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && len(r.URL.Path) > len("/contract/") && hasSignSuffix(r.URL.Path):
			contractHandlers.HandleSign(w, r)
		case r.Method == http.MethodGet:
			contractHandlers.HandleGet(w, r)
		case r.Method == http.MethodPut:
			contractHandlers.HandleUpdate(w, r)
		case r.Method == http.MethodDelete:
			contractHandlers.HandleDelete(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/magic/spell/", spellHandlers.HandleDispatch)

	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics server error: %v", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logger.Printf("contract coordinator listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown error: %v", err)
	}
}

func hasSignSuffix(path string) bool {
	const suffix = "/sign"
	return len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix
}
