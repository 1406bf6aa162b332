package gateway

import (
	"io"
	"net/http"
	"sort"

	"github.com/example/tableorder/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cartView struct {
	Lines   []models.CartLine `json:"lines"`
	Totals  models.Totals     `json:"totals"`
	TaxRate decimal.Decimal   `json:"taxRate"`
}

type addItemRequest struct {
	MenuItemID          string                 `json:"menuItemId" binding:"required"`
	Name                string                 `json:"name"`
	Price               decimal.Decimal        `json:"price"`
	Quantity            int                    `json:"quantity"`
	Customizations      []models.Customization `json:"customizations"`
	SpecialInstructions string                 `json:"specialInstructions"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type placeOrderRequest struct {
	Notes string `json:"notes"`
}

type clickRequest struct {
	Action string `json:"action"`
}

type focusRequest struct {
	Foreground bool `json:"foreground"`
}

func (g *Gateway) getMenu(c *gin.Context) {
	g.mu.Lock()
	cached := g.menu
	g.mu.Unlock()
	if cached != nil {
		success(c, http.StatusOK, cached)
		return
	}

	items, err := g.deps.Menu.Menu(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	g.mu.Lock()
	g.menu = items
	g.mu.Unlock()
	success(c, http.StatusOK, items)
}

func (g *Gateway) cartView() cartView {
	lines := g.deps.Cart.Lines()
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartView{
		Lines:   lines,
		Totals:  g.deps.Cart.Totals(),
		TaxRate: g.deps.Cart.TaxRate(),
	}
}

func (g *Gateway) getCart(c *gin.Context) {
	success(c, http.StatusOK, g.cartView())
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line := models.CartLine{
		MenuItemID:          req.MenuItemID,
		Name:                req.Name,
		UnitPrice:           req.Price,
		Quantity:            req.Quantity,
		Customizations:      req.Customizations,
		SpecialInstructions: req.SpecialInstructions,
	}
	if err := g.deps.Cart.AddLine(c.Request.Context(), line); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, g.cartView())
}

func (g *Gateway) setCartItemQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := g.deps.Cart.SetQuantity(c.Request.Context(), c.Param("menuItemId"), *req.Quantity); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, g.cartView())
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	if err := g.deps.Cart.RemoveLine(c.Request.Context(), c.Param("menuItemId")); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, g.cartView())
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.deps.Cart.Clear(c.Request.Context()); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, g.cartView())
}

func (g *Gateway) getTable(c *gin.Context) {
	sel, err := g.deps.Tables.Current(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	if sel == nil {
		failure(c, http.StatusNotFound, "no table selected")
		return
	}
	success(c, http.StatusOK, sel)
}

func (g *Gateway) selectTable(c *gin.Context) {
	var sel models.TableSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := g.deps.Tables.Select(c.Request.Context(), sel); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, sel)
}

func (g *Gateway) clearTable(c *gin.Context) {
	if err := g.deps.Tables.Clear(c.Request.Context()); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

type sessionView struct {
	Authenticated bool             `json:"authenticated"`
	Customer      *models.Customer `json:"customer,omitempty"`
}

func (g *Gateway) sessionView() sessionView {
	s := g.deps.Auth.Current()
	if s == nil {
		return sessionView{}
	}
	customer := s.Customer
	return sessionView{Authenticated: true, Customer: &customer}
}

func (g *Gateway) getSession(c *gin.Context) {
	success(c, http.StatusOK, g.sessionView())
}

func (g *Gateway) login(c *gin.Context) {
	g.authenticate(c, false)
}

func (g *Gateway) register(c *gin.Context) {
	g.authenticate(c, true)
}

func (g *Gateway) authenticate(c *gin.Context, register bool) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	var err error
	if register {
		_, err = g.deps.Auth.Register(ctx, req.Username)
	} else {
		_, err = g.deps.Auth.Login(ctx, req.Username)
	}
	if err != nil {
		g.writeError(c, err)
		return
	}

	if err := g.deps.Tokens.RegisterToken(ctx); err != nil {
		g.logger.Warn("Token registration failed", zap.Error(err))
	}
	success(c, http.StatusOK, g.sessionView())
}

func (g *Gateway) logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := g.deps.Tokens.UnregisterToken(ctx); err != nil {
		g.logger.Warn("Token unregistration failed", zap.Error(err))
	}
	if err := g.deps.Auth.Logout(ctx); err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, g.sessionView())
}

func (g *Gateway) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			failure(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	created, err := g.deps.Orders.PlaceOrder(c.Request.Context(), req.Notes)
	if err != nil {
		g.writeError(c, err)
		return
	}
	g.mu.Lock()
	g.tracked[created.ID] = created
	g.mu.Unlock()
	success(c, http.StatusCreated, created)
}

func (g *Gateway) getOrder(c *gin.Context) {
	o, err := g.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, o)
}

func (g *Gateway) orderHistory(c *gin.Context) {
	orders, err := g.deps.Orders.History(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	success(c, http.StatusOK, orders)
}

func (g *Gateway) trackedOrders(c *gin.Context) {
	g.mu.Lock()
	out := make([]*models.Order, 0, len(g.tracked))
	for _, o := range g.tracked {
		out = append(out, o)
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	success(c, http.StatusOK, out)
}

func (g *Gateway) listMessages(c *gin.Context) {
	success(c, http.StatusOK, g.deps.Inbox.List())
}

func (g *Gateway) clearMessages(c *gin.Context) {
	g.deps.Inbox.Clear()
	success(c, http.StatusOK, nil)
}

func (g *Gateway) requestPermission(c *gin.Context) {
	perm, err := g.deps.Tokens.RequestPermission(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"permission": perm})
}

// ingestPush accepts a raw push payload as the relay would deliver it.
func (g *Gateway) ingestPush(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	g.deps.Dispatcher.HandlePush(c.Request.Context(), raw)
	success(c, http.StatusAccepted, gin.H{"foreground": g.deps.Dispatcher.Foreground()})
}

func (g *Gateway) listTray(c *gin.Context) {
	success(c, http.StatusOK, g.deps.Tray.List())
}

func (g *Gateway) clickNotification(c *gin.Context) {
	var req clickRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			failure(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	n, found := g.deps.Tray.Find(c.Param("id"))
	if !found {
		failure(c, http.StatusNotFound, "notification not found")
		return
	}
	out, err := g.deps.Bridge.Click(n, req.Action)
	if err != nil {
		g.writeError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"outcome": out.Kind, "url": out.URL})
}

func (g *Gateway) getApp(c *gin.Context) {
	g.mu.Lock()
	location := g.location
	g.mu.Unlock()
	success(c, http.StatusOK, gin.H{
		"foreground": g.deps.Dispatcher.Foreground(),
		"location":   location,
	})
}

func (g *Gateway) setFocus(c *gin.Context) {
	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	g.deps.Dispatcher.SetForeground(req.Foreground)
	success(c, http.StatusOK, gin.H{"foreground": req.Foreground})
}
