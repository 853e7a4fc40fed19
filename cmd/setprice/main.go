// Command setprice injects one instrument price tick into the engine.
// Handy when a stuck position needs a quote to settle.
//
//	setprice [-config path] <symbol> <price>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/simplespot/invest-engine-e2e/internal/config"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/engine"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/grpcpool"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/logger"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config path")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: setprice [-config path] <symbol> <price>")
		os.Exit(2)
	}
	symbol := flag.Arg(0)
	price, err := strconv.ParseFloat(flag.Arg(1), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad price %q: %v\n", flag.Arg(1), err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pool := grpcpool.New(cfg.GRPCTargets(), log)
	defer pool.CloseAll()

	// Price injection needs no bearer token, it is gRPC-only.
	api := engine.New(cfg, "", pool, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := api.SetupInstrumentPrice(ctx, symbol, price); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set price: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("price for %s set to %v\n", symbol, price)
}
