package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/tableorder/gateway"
	"github.com/example/tableorder/pkg/api"
	"github.com/example/tableorder/pkg/audit"
	"github.com/example/tableorder/pkg/bridge"
	"github.com/example/tableorder/pkg/cart"
	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/discovery"
	"github.com/example/tableorder/pkg/logger"
	"github.com/example/tableorder/pkg/notification"
	"github.com/example/tableorder/pkg/order"
	"github.com/example/tableorder/pkg/push"
	"github.com/example/tableorder/pkg/repository"
	"github.com/example/tableorder/pkg/session"
	"github.com/example/tableorder/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Starting kiosk",
		zap.String("tenant", cfg.API.Tenant),
		zap.String("store", cfg.Store.Backend),
		zap.String("address", cfg.Kiosk.Addr()))

	// Service discovery
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
			sd = nil
		}
	}

	baseURL := cfg.API.BaseURL
	if cfg.API.DiscoverService != "" {
		if sd == nil {
			if baseURL == "" {
				log.Fatal("API discovery requested but etcd is unavailable")
			}
		} else if resolved, err := sd.ResolveBaseURL(ctx, cfg.API.DiscoverService); err != nil {
			if baseURL == "" {
				log.Fatal("Failed to resolve ordering API", zap.Error(err))
			}
			log.Warn("Failed to resolve ordering API, using configured base URL", zap.Error(err))
		} else {
			baseURL = resolved
		}
	}

	// Client state
	backend, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()
	st := store.NewPrefixed(backend, cfg.Store.KeyPrefix)

	// Audit trail
	var recorder audit.Recorder = audit.Nop{}
	if cfg.MongoDB.URI != "" {
		repo, err := repository.NewAuditRepository(&cfg.MongoDB, log)
		if err != nil {
			log.Warn("Failed to connect to MongoDB, audit disabled", zap.Error(err))
		} else {
			recorder = repo
			defer repo.Close(context.Background())
		}
	}

	client := api.New(api.Options{
		BaseURL: baseURL,
		Tenant:  cfg.API.Tenant,
		Timeout: cfg.API.Timeout,
		Breaker: cfg.API.Breaker,
	}, log)

	taxRate, err := decimal.NewFromString(cfg.Cart.TaxRate)
	if err != nil {
		log.Fatal("Invalid cart tax rate", zap.String("tax_rate", cfg.Cart.TaxRate), zap.Error(err))
	}
	shoppingCart := cart.New(st, taxRate, log)
	if err := shoppingCart.Load(ctx); err != nil {
		log.Fatal("Failed to load cart", zap.Error(err))
	}

	tables := session.NewTables(st)
	auth := session.NewAuth(client, st, log)
	if err := auth.Load(ctx); err != nil {
		log.Fatal("Failed to load session", zap.Error(err))
	}
	if exp, ok := auth.ExpiresAt(); ok && time.Now().After(exp) {
		auth.Invalidate(ctx, fmt.Errorf("access token expired at %s", exp.Format(time.RFC3339)))
	}
	client.SetTokenSource(auth)
	client.OnUnauthorized(func(err error) {
		auth.Invalidate(context.Background(), err)
	})

	// Push
	policy, err := push.ParsePermission(cfg.Push.AutoGrant)
	if err != nil {
		log.Fatal("Invalid push policy", zap.Error(err))
	}
	provider := push.NewLocalProvider(policy)
	inbox := notification.NewInbox(0)
	tokens := notification.NewTokenManager(client, provider, st, auth, inbox, log)
	pipeline := order.NewPipeline(client, shoppingCart, tables, auth, recorder, log)

	// Background bridge
	system := actor.NewActorSystem()
	tray := bridge.NewTray(log)
	hub := bridge.NewHub(0)
	sub, pid, err := startBridge(system, tray, hub, cfg.Bridge, log)
	if err != nil {
		log.Fatal("Failed to start bridge", zap.Error(err))
	}
	ref := bridge.NewRef(system, pid, cfg.Bridge.RequestTimeout)

	var gw *gateway.Gateway
	router := notification.NewRouter(notification.Callbacks{
		OnOrderUpdate: func(id string) { gw.RefreshOrder(context.Background(), id) },
		OnMenuUpdate:  func() { gw.InvalidateMenu() },
		OnCartUpdate: func() {
			if err := shoppingCart.Load(context.Background()); err != nil {
				log.Warn("Failed to reload cart", zap.Error(err))
			}
		},
		OnNavigate: func(url string) { gw.Navigate(url) },
	}, inbox, recorder, log)
	dispatcher := push.NewDispatcher(router, ref, log)

	hub.OnFocus(func(string) { dispatcher.SetForeground(true) })
	hub.SetOpener(func(url string) (string, error) {
		gw.Navigate(url)
		dispatcher.SetForeground(true)
		return cfg.Kiosk.Name, nil
	})

	go func() {
		for msg := range sub.C {
			router.HandleClientMessage(ctx, msg)
		}
	}()

	gw = gateway.NewGateway(cfg, log, gateway.Deps{
		Menu:       client,
		Cart:       shoppingCart,
		Tables:     tables,
		Auth:       auth,
		Orders:     pipeline,
		Tokens:     tokens,
		Inbox:      inbox,
		Tray:       tray,
		Bridge:     ref,
		Dispatcher: dispatcher,
	})
	gw.SetupRoutes()

	if len(cfg.Kafka.Brokers) > 0 {
		src := push.NewSource(&cfg.Kafka, dispatcher, log)
		go src.Run(ctx)
		defer src.Close()
	}

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	instance := &discovery.ServiceInstance{Name: cfg.Kiosk.Name, Host: cfg.Kiosk.Host, Port: cfg.Kiosk.Port}
	if sd != nil {
		if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register kiosk", zap.Error(err))
		}
	}

	log.Info("Kiosk started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-gwErr:
		log.Error("Gateway error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Warn("Gateway shutdown failed", zap.Error(err))
	}
	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Warn("Failed to deregister kiosk", zap.Error(err))
		}
		sd.Close()
	}
	cancel()
	system.Root.Stop(pid)
	hub.Unsubscribe(sub.ID)

	log.Info("Kiosk stopped")
}

// startBridge registers the kiosk as the bridge's only client before the
// bridge activates, so activation claims it.
func startBridge(system *actor.ActorSystem, tray *bridge.Tray, hub *bridge.Hub, cfg config.BridgeConfig, log *zap.Logger) (*bridge.Subscription, *actor.PID, error) {
	sub := hub.Subscribe()
	pid, err := bridge.Spawn(system, tray, hub, cfg, log)
	if err != nil {
		hub.Unsubscribe(sub.ID)
		return nil, nil, err
	}
	return sub, pid, nil
}

func openStore(cfg *config.Config, log *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		rs := repository.NewRedisStore(&cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Using Redis store", zap.String("addr", cfg.Redis.Addr))
		return rs, func() { rs.Close() }, nil
	case "mysql":
		ss, err := repository.NewSQLStore(&cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using MySQL store", zap.String("host", cfg.MySQL.Host), zap.String("database", cfg.MySQL.Database))
		return ss, func() { ss.Close() }, nil
	default:
		log.Info("Using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}
}
