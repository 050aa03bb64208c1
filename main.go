/*
This is the demo application exercising the frame orchestrator: it boots
the testbed game (window, Vulkan context, config watcher) and runs its
frame loop until interrupted.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/testbed"
)

func main() {
	game, err := testbed.New("config.toml")
	if err != nil {
		panic(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		if err := game.Shutdown(); err != nil {
			core.LogError("shutdown: %v", err)
		}
		os.Exit(0)
	}()

	if err := game.Run(); err != nil {
		panic(err)
	}
	if err := game.Shutdown(); err != nil {
		core.LogError("shutdown: %v", err)
	}
}
