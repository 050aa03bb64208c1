package visibility

import (
	"sync"

	"github.com/spaghettifunk/forgegraph/engine/containers"
	"github.com/spaghettifunk/forgegraph/engine/math"
)

type frustum struct {
	staticZone, dynamicZone bool
	eye, lookAt, up         math.Vec3
	view, projection        math.Mat4
}

// World is the arena backing every VisibilityObject and view frustum, plus
// the command queue mutators submit onto. It is single-owner: only
// VisibilityRegion.BeginFrame drains commands, so World itself needs no
// internal locking beyond the channel.
type World struct {
	objects  *containers.Arena[VisibilityObject]
	frustums *containers.Arena[frustum]

	commands   chan command
	commandsMu sync.Mutex // guards closing commands exactly once
	closed     bool
}

func newWorld(commandBuffer int) *World {
	return &World{
		objects:  containers.NewArena[VisibilityObject](),
		frustums: containers.NewArena[frustum](),
		commands: make(chan command, commandBuffer),
	}
}

// enqueue submits a command for later application. It never blocks the
// mutator beyond the channel's buffer; if the buffer is full the mutator
// blocks, matching a bounded command queue's back-pressure.
func (w *World) enqueue(c command) {
	w.commandsMu.Lock()
	closed := w.closed
	w.commandsMu.Unlock()
	if closed {
		return
	}
	w.commands <- c
}

// drain applies every currently-queued command, in submission order. Called
// once per frame at the start of the visibility stage.
func (w *World) drain() {
	for {
		select {
		case cmd := <-w.commands:
			cmd.apply(w)
		default:
			return
		}
	}
}

func (w *World) shutdown() {
	w.commandsMu.Lock()
	defer w.commandsMu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.commands)
}
