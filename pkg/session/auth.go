package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/tableorder/pkg/models"
	"github.com/example/tableorder/pkg/store"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrUsernameRequired = errors.New("username is required")

// AuthAPI is the part of the REST client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, username string) (*models.AuthSession, error)
	Register(ctx context.Context, username string) (*models.AuthSession, error)
}

var authKeys = []string{
	store.KeyCustomerToken,
	store.KeyCustomer,
	store.KeyCustomerID,
	store.KeyCustomerUsername,
	store.KeyRefreshToken,
}

// Auth owns the username-only customer session and its persisted copy.
type Auth struct {
	api    AuthAPI
	store  store.Store
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.AuthSession
}

func NewAuth(api AuthAPI, st store.Store, logger *zap.Logger) *Auth {
	return &Auth{api: api, store: st, logger: logger.Named("auth")}
}

// Load restores the persisted session. A token without a cached customer, or
// the reverse, is corrupt and gets wiped.
func (a *Auth) Load(ctx context.Context) error {
	token, hasToken, err := store.Lookup(ctx, a.store, store.KeyCustomerToken)
	if err != nil {
		return err
	}

	var customer models.Customer
	hasCustomer := true
	if err := store.GetJSON(ctx, a.store, store.KeyCustomer, &customer); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("Cached customer is unreadable", zap.Error(err))
		}
		hasCustomer = false
	}
	hasToken = hasToken && token != ""

	switch {
	case hasToken && hasCustomer:
		refresh, _, err := store.Lookup(ctx, a.store, store.KeyRefreshToken)
		if err != nil {
			return err
		}
		a.set(&models.AuthSession{Customer: customer, AccessToken: token, RefreshToken: refresh})
		a.logger.Info("Session restored", zap.String("customer_id", customer.ID))
	case hasToken || hasCustomer:
		a.logger.Warn("Discarding partial session",
			zap.Bool("has_token", hasToken),
			zap.Bool("has_customer", hasCustomer))
		return a.clear(ctx)
	default:
		a.set(nil)
	}
	return nil
}

func (a *Auth) Login(ctx context.Context, username string) (*models.AuthSession, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	s, err := a.api.Login(ctx, username)
	if err != nil {
		return nil, err
	}
	return s, a.save(ctx, s)
}

func (a *Auth) Register(ctx context.Context, username string) (*models.AuthSession, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	s, err := a.api.Register(ctx, username)
	if err != nil {
		return nil, err
	}
	return s, a.save(ctx, s)
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.clear(ctx)
}

// Invalidate drops the session after the API rejected its token.
func (a *Auth) Invalidate(ctx context.Context, cause error) {
	a.logger.Warn("Access token rejected, clearing session", zap.Error(cause))
	if err := a.clear(ctx); err != nil {
		a.logger.Error("Failed to clear session", zap.Error(err))
	}
}

func (a *Auth) Current() *models.AuthSession {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil
	}
	s := *a.current
	return &s
}

func (a *Auth) Authenticated() bool {
	return a.Current() != nil
}

// AccessToken implements api.TokenSource.
func (a *Auth) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return ""
	}
	return a.current.AccessToken
}

// ExpiresAt reads the exp claim of the access token without verifying it.
func (a *Auth) ExpiresAt() (time.Time, bool) {
	tok := a.AccessToken()
	if tok == "" {
		return time.Time{}, false
	}
	return tokenExpiry(tok)
}

func tokenExpiry(raw string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (a *Auth) save(ctx context.Context, s *models.AuthSession) error {
	if err := a.store.Set(ctx, store.KeyCustomerToken, s.AccessToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := store.SetJSON(ctx, a.store, store.KeyCustomer, s.Customer); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	if err := a.store.Set(ctx, store.KeyCustomerID, s.Customer.ID); err != nil {
		return fmt.Errorf("failed to save customer id: %w", err)
	}
	if err := a.store.Set(ctx, store.KeyCustomerUsername, s.Customer.Username); err != nil {
		return fmt.Errorf("failed to save username: %w", err)
	}
	if err := a.store.Set(ctx, store.KeyRefreshToken, s.RefreshToken); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	a.set(s)
	a.logger.Info("Signed in", zap.String("customer_id", s.Customer.ID), zap.String("username", s.Customer.Username))
	return nil
}

func (a *Auth) clear(ctx context.Context) error {
	a.set(nil)
	if err := a.store.Remove(ctx, authKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (a *Auth) set(s *models.AuthSession) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = s
}
