package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/tableorder/pkg/bridge"
	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/logger"
	"github.com/example/tableorder/pkg/push"
	"go.uber.org/zap"
)

// The standalone bridge has no app attached: silent payloads reach nobody
// and notifications land in the log.
func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("TABLEORDER_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("kafka.brokers must be set for the standalone bridge")
	}

	log.Info("Starting bridge", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	system := actor.NewActorSystem()
	hub := bridge.NewHub(0)
	hub.SetOpener(func(url string) (string, error) {
		log.Info("No app attached, dropping navigation", zap.String("url", url))
		return "", bridge.ErrNoOpener
	})

	pid, err := bridge.Spawn(system, bridge.NewTray(log), hub, cfg.Bridge, log)
	if err != nil {
		log.Fatal("Failed to start bridge", zap.Error(err))
	}

	src := push.NewSource(&cfg.Kafka, bridge.NewRef(system, pid, cfg.Bridge.RequestTimeout), log)
	go src.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Received shutdown signal")
	cancel()
	if err := src.Close(); err != nil {
		log.Warn("Failed to close push source", zap.Error(err))
	}
	system.Root.Stop(pid)
	log.Info("Bridge stopped")
}
