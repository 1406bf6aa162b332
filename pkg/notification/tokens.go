package notification

import (
	"context"
	"fmt"

	"github.com/example/tableorder/pkg/push"
	"github.com/example/tableorder/pkg/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type TokenAPI interface {
	RegisterFCMToken(ctx context.Context, token string) error
	RemoveFCMToken(ctx context.Context, token string) error
}

type Authenticator interface {
	Authenticated() bool
}

// TokenManager keeps the backend's copy of this device's push token in step
// with the provider. The last registered token is cached under fcmToken and a
// registration is skipped when it has not changed.
type TokenManager struct {
	api       TokenAPI
	provider  push.Provider
	store     store.Store
	auth      Authenticator
	presenter Presenter
	logger    *zap.Logger

	group singleflight.Group
}

func NewTokenManager(api TokenAPI, provider push.Provider, st store.Store, auth Authenticator, presenter Presenter, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		api:       api,
		provider:  provider,
		store:     st,
		auth:      auth,
		presenter: presenter,
		logger:    logger.Named("push-token"),
	}
}

// RegisterToken is a no-op for guests and while the provider is not ready.
// Concurrent calls share one registration.
func (m *TokenManager) RegisterToken(ctx context.Context) error {
	if !m.auth.Authenticated() {
		m.logger.Debug("Skipping token registration for guest")
		return nil
	}
	if !m.provider.Ready() {
		m.logger.Debug("Skipping token registration, push not ready")
		return nil
	}

	_, err, _ := m.group.Do("register", func() (interface{}, error) {
		return nil, m.register(ctx)
	})
	return err
}

func (m *TokenManager) register(ctx context.Context) error {
	token, err := m.provider.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get push token: %w", err)
	}

	cached, ok, err := store.Lookup(ctx, m.store, store.KeyFCMToken)
	if err != nil {
		return fmt.Errorf("failed to read cached push token: %w", err)
	}
	if ok && cached == token {
		m.logger.Debug("Push token unchanged, skipping registration")
		return nil
	}

	if err := m.api.RegisterFCMToken(ctx, token); err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	if err := m.store.Set(ctx, store.KeyFCMToken, token); err != nil {
		return fmt.Errorf("failed to cache push token: %w", err)
	}

	m.logger.Info("Push token registered")
	return nil
}

// UnregisterToken is a no-op when no token is cached. Local state is cleared
// even when the backend call fails.
func (m *TokenManager) UnregisterToken(ctx context.Context) error {
	cached, ok, err := store.Lookup(ctx, m.store, store.KeyFCMToken)
	if err != nil {
		return fmt.Errorf("failed to read cached push token: %w", err)
	}
	if !ok {
		return nil
	}

	apiErr := m.api.RemoveFCMToken(ctx, cached)
	if apiErr != nil {
		m.logger.Warn("Failed to remove push token from backend", zap.Error(apiErr))
	}

	if err := m.provider.DeleteToken(ctx); err != nil {
		m.logger.Warn("Failed to delete local push token", zap.Error(err))
	}
	if err := m.store.Remove(ctx, store.KeyFCMToken); err != nil {
		return fmt.Errorf("failed to clear cached push token: %w", err)
	}

	if apiErr != nil {
		return fmt.Errorf("failed to unregister push token: %w", apiErr)
	}
	m.logger.Info("Push token unregistered")
	return nil
}

// RequestPermission prompts for push permission. Granted registers the token
// right away, denied shows a warning, a dismissed prompt does nothing.
// Registration failures are logged only.
func (m *TokenManager) RequestPermission(ctx context.Context) (push.Permission, error) {
	perm, err := m.provider.RequestPermission(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to request push permission: %w", err)
	}

	switch perm {
	case push.PermissionGranted:
		if err := m.RegisterToken(ctx); err != nil {
			m.logger.Warn("Token registration failed", zap.Error(err))
		}
	case push.PermissionDenied:
		if m.presenter != nil {
			m.presenter.Present(Message{
				Level: LevelWarning,
				Title: "Notifications blocked",
				Body:  "You will not receive order updates. Enable notifications in your settings to get them.",
			})
		}
	}
	return perm, nil
}
