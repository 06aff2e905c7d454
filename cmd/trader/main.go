package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/crypto-signal-trader/internal/bot"
	"github.com/ducminhle1904/crypto-signal-trader/internal/config"
	"github.com/ducminhle1904/crypto-signal-trader/internal/monitoring"
	"github.com/ducminhle1904/crypto-signal-trader/internal/notifications"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/data"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/reporting"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "Environment file path (default: .env)")
		feedDir  = flag.String("feeds", "feeds", "Directory where score feeds drop per-symbol JSON snapshots")
		feedAge  = flag.Duration("feed-max-age", 5*time.Minute, "Treat feed snapshots older than this as missing")
		noServer = flag.Bool("no-server", false, "Disable metrics and health HTTP endpoints")
	)
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	fmt.Println("🚀 Signal Trader Starting...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.Notifications.TelegramToken != "" && cfg.Notifications.TelegramChatID != "" {
		notifier = notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
		fmt.Println("📱 Telegram notifications enabled")
	}

	health := monitoring.NewHealthChecker()
	if !*noServer {
		startServers(cfg, health)
	}

	provider := data.NewFileScoreProvider(*feedDir, *feedAge)
	trader, err := bot.NewPaperBot(cfg, provider, notifier, health)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := trader.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	fmt.Printf("\n🛑 Received %v, shutting down gracefully...\n", sig)
	trader.Stop()

	reporting.NewDefaultConsoleReporter().OutputSummary(trader.Ledger().Summary())
	fmt.Println("👋 Goodbye!")
}

func startServers(cfg *config.Config, health *monitoring.HealthChecker) {
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		fmt.Printf("📊 Metrics listening on %s/metrics\n", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		fmt.Printf("❤️ Health listening on %s/health\n", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server stopped: %v", err)
		}
	}()
}
