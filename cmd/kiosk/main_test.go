package main

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/tableorder/pkg/bridge"
	"github.com/example/tableorder/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartBridge_ClaimsKiosk(t *testing.T) {
	system := actor.NewActorSystem()
	hub := bridge.NewHub(1)

	sub, pid, err := startBridge(system, bridge.NewTray(zap.NewNop()), hub, config.BridgeConfig{DefaultURL: "/"}, zap.NewNop())
	require.NoError(t, err)
	defer system.Root.Stop(pid)

	require.Equal(t, []string{sub.ID}, hub.IDs())
	require.Eventually(t, func() bool { return hub.Controlled(sub.ID) }, time.Second, 5*time.Millisecond)
}
