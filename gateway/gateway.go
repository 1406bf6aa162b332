package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/example/tableorder/pkg/bridge"
	"github.com/example/tableorder/pkg/cart"
	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/models"
	"github.com/example/tableorder/pkg/notification"
	"github.com/example/tableorder/pkg/order"
	"github.com/example/tableorder/pkg/push"
	"github.com/example/tableorder/pkg/session"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type MenuAPI interface {
	Menu(ctx context.Context) ([]models.MenuItem, error)
}

type BridgeClicker interface {
	Click(n bridge.Notification, action string) (*bridge.Outcome, error)
}

// Deps are the app services the kiosk exposes.
type Deps struct {
	Menu       MenuAPI
	Cart       *cart.Cart
	Tables     *session.Tables
	Auth       *session.Auth
	Orders     *order.Pipeline
	Tokens     *notification.TokenManager
	Inbox      *notification.Inbox
	Tray       *bridge.Tray
	Bridge     BridgeClicker
	Dispatcher *push.Dispatcher
}

type Gateway struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
	deps   Deps

	mu       sync.Mutex
	menu     []models.MenuItem
	tracked  map[string]*models.Order
	location string
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		logger:   logger.Named("gateway"),
		router:   router,
		deps:     deps,
		tracked:  make(map[string]*models.Order),
		location: "/",
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		v1.GET("/menu", g.getMenu)

		cartRoutes := v1.Group("/cart")
		{
			cartRoutes.GET("", g.getCart)
			cartRoutes.POST("/items", g.addCartItem)
			cartRoutes.PUT("/items/:menuItemId", g.setCartItemQuantity)
			cartRoutes.DELETE("/items/:menuItemId", g.removeCartItem)
			cartRoutes.DELETE("", g.clearCart)
		}

		table := v1.Group("/table")
		{
			table.GET("", g.getTable)
			table.PUT("", g.selectTable)
			table.DELETE("", g.clearTable)
		}

		sess := v1.Group("/session")
		{
			sess.GET("", g.getSession)
			sess.POST("/login", g.login)
			sess.POST("/register", g.register)
			sess.POST("/logout", g.logout)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", g.placeOrder)
			orders.GET("", g.orderHistory)
			orders.GET("/tracked", g.trackedOrders)
			orders.GET("/:id", g.getOrder)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", g.listMessages)
			notifications.DELETE("", g.clearMessages)
			notifications.POST("/permission", g.requestPermission)
			notifications.POST("/push", g.ingestPush)
			notifications.GET("/tray", g.listTray)
			notifications.POST("/tray/:id/click", g.clickNotification)
		}

		app := v1.Group("/app")
		{
			app.GET("", g.getApp)
			app.PUT("/focus", g.setFocus)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Kiosk.Addr()
	g.mu.Lock()
	g.server = &http.Server{Addr: addr, Handler: g.router}
	srv := g.server
	g.mu.Unlock()

	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// InvalidateMenu drops the cached menu; the next request refetches it.
func (g *Gateway) InvalidateMenu() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.menu = nil
}

// RefreshOrder refetches an order and keeps the latest copy for the kiosk.
func (g *Gateway) RefreshOrder(ctx context.Context, id string) {
	o, err := g.deps.Orders.Get(ctx, id)
	if err != nil {
		g.logger.Warn("Failed to refresh order", zap.String("order_id", id), zap.Error(err))
		return
	}
	g.mu.Lock()
	g.tracked[id] = o
	g.mu.Unlock()
	g.logger.Info("Order refreshed", zap.String("order_id", id), zap.String("status", o.Status))
}

// Navigate records where the app was asked to go.
func (g *Gateway) Navigate(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.location = url
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
