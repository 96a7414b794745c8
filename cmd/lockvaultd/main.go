package main

import (
	"flag"
	"net/http"
	"os"

	"lockvault/config"
	"lockvault/native/lockup"
	"lockvault/observability/logging"
	"lockvault/rpc"
	"lockvault/storage/vaultledger"
)

func main() {
	configPath := flag.String("config", "lockvault.toml", "path to the service configuration")
	env := flag.String("env", "", "deployment environment label")
	flag.Parse()

	logger := logging.Setup("lockvaultd", *env)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load configuration", "error", err)
		os.Exit(1)
	}

	engine := lockup.NewEngine(cfg.StakeTokenAddress(), cfg.VaultAddress(), cfg.LockTiers())
	engine.SetState(lockup.NewMemoryState())
	engine.SetTokenLedger(vaultledger.New(cfg.VaultAddress()))
	engine.SetAuthorizer(cfg.Roles())
	engine.SetCleanupLimit(cfg.CleanupLimit)
	if err := engine.ConfigureStream(cfg.StreamDurationSeconds, cfg.LookbackSeconds); err != nil {
		logger.Error("configure stream", "error", err)
		os.Exit(1)
	}
	if err := engine.ConfigureOperationExpenses(cfg.OpsTreasuryAddress(), cfg.OpsExpenseRatio); err != nil {
		logger.Error("configure operation expenses", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(engine, logger)
	logger.Info("listening", "address", cfg.ListenAddress)
	if err := http.ListenAndServe(cfg.ListenAddress, server.Router()); err != nil {
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
}
