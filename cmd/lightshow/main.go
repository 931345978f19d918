package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"lightshow/internal/config"
	database "lightshow/internal/db"
	"lightshow/internal/hardware"
	"lightshow/internal/lights"
	"lightshow/internal/show"
	"lightshow/internal/storage"

	apiserver "lightshow/internal/api/server"
)

func main() {
	// 1. Parse Flags
	simulate := flag.Bool("simulate", false, "Drive the on-screen simulator instead of the GPIO header")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration as YAML and exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 2. Load Config
	cfg := config.Load()
	if *simulate {
		cfg.Lights.Driver = "sim"
	}
	if *printConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("❌ Unable to encode config: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	setupLogging(cfg.Server.LogLevel)
	log.Println("🎄 Starting Light Show Server...")

	// 3. Init Infrastructure
	store := storage.New(cfg)
	db := database.New(cfg)
	db.AutoMigrate()

	// 4. Lights
	driver, err := hardware.New(cfg.Lights.Driver)
	if err != nil {
		log.Fatalf("❌ Failed to open lights driver: %v", err)
	}
	channels := make([]lights.Channel, len(cfg.Lights.Pins))
	for i, pin := range cfg.Lights.Pins {
		channels[i] = lights.Channel{Pin: pin, Label: cfg.Label(i)}
	}
	bank, err := lights.NewBank(driver, channels)
	if err != nil {
		log.Fatalf("❌ Failed to configure light pins: %v", err)
	}
	if sim, ok := driver.(*hardware.Simulator); ok {
		log.Println("🧪 MODE: SIMULATION (no GPIO output)")
		go watchSimulator(sim)
	}

	player := show.NewPlayer(bank, show.RealClock{}, cfg.Lights.RotateFrames)
	controller := show.NewController(player, bank)
	controller.Observe(db)

	// 5. Setup Metrics
	show.RegisterMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, mux); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 6. Start Server
	srv := apiserver.New(cfg, controller, store, db)
	go func() {
		log.Printf("🚀 Light Show Server listening on %s (%d channels)", cfg.Server.Port, len(channels))
		if err := srv.Start(); err != nil {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// 7. Wait for shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if err := controller.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Show controller shutdown: %v", err)
	}
	if err := bank.Blackout(); err != nil {
		log.Printf("⚠️ Blackout incomplete: %v", err)
	}
	if err := driver.Close(); err != nil {
		log.Printf("⚠️ Driver close: %v", err)
	}
	log.Println("✅ Lights off, bye")
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// watchSimulator prints the simulated lights whenever they change.
func watchSimulator(sim *hardware.Simulator) {
	var last string
	for range time.Tick(100 * time.Millisecond) {
		if now := sim.Render(); now != last {
			slog.Info("lights", "state", now)
			last = now
		}
	}
}
