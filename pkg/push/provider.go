// Package push carries raw push payloads from the relay to whichever context
// should handle them, and stands in for the platform's push subsystem.
package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

var ErrPermissionNotGranted = errors.New("push permission not granted")

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return p, nil
	default:
		return "", fmt.Errorf("unknown push permission %q", s)
	}
}

// Provider is the device side of push messaging.
type Provider interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	// Ready reports whether tokens can be issued.
	Ready() bool
	Token(ctx context.Context) (string, error)
	DeleteToken(ctx context.Context) error
}

// LocalProvider answers permission prompts with a fixed policy and issues
// random device tokens. A decided permission is never asked again; a dismissed
// prompt leaves the permission at default.
type LocalProvider struct {
	mu     sync.Mutex
	policy Permission
	state  Permission
	token  string
}

func NewLocalProvider(policy Permission) *LocalProvider {
	return &LocalProvider{policy: policy, state: PermissionDefault}
}

func (p *LocalProvider) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *LocalProvider) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PermissionDefault {
		p.state = p.policy
	}
	return p.state, nil
}

func (p *LocalProvider) Ready() bool {
	return p.Permission() == PermissionGranted
}

func (p *LocalProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionGranted {
		return "", ErrPermissionNotGranted
	}
	if p.token == "" {
		p.token = uuid.NewString()
	}
	return p.token, nil
}

// DeleteToken drops the current token; the next Token call issues a new one.
func (p *LocalProvider) DeleteToken(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	return nil
}
