package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"StockSignal/internal/client"
	"StockSignal/internal/orchestrator"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	applogger "StockSignal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	apiBase := flag.String("api", "", "API base URL (overrides config and API_BASE)")
	debounce := flag.Duration("debounce", 0, "quiet period after symbol input")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *apiBase != "" {
		cfg.Client.APIBase = *apiBase
	}
	if *debounce > 0 {
		cfg.Client.Debounce = *debounce
	}

	l, err := applogger.New(&applogger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	api := client.New(cfg.Client.APIBase,
		client.WithRetries(cfg.Client.RetryAttempts),
		client.WithLogger(l),
		client.WithHTTPOptions(xhttp.WithTimeout(cfg.Client.Timeout)),
	)

	scfg := orchestrator.DefaultConfig()
	scfg.Debounce = cfg.Client.Debounce
	session := orchestrator.NewSession(api, scfg, l)

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for b := range session.Updates() {
			render(os.Stdout, b)
		}
	}()

	fmt.Printf("stocksignal client -> %s (debounce %s)\n", cfg.Client.APIBase, cfg.Client.Debounce.Round(time.Millisecond))
	fmt.Println("type a symbol, or :period :interval :fast :slow :fee :sim :refresh :quit")

	w := &windows{fast: scfg.Params.Fast, slow: scfg.Params.Slow}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := execute(session, w, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}

	session.Close()
	<-rendered
}
