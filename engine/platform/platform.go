// Package platform owns the OS window testbed renders into, the same
// glfw.CreateWindow + callback-registration sequence as the original
// engine's platform package, trimmed of the input-event plumbing this
// frame orchestrator has no feature to consume yet.
package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/forgegraph/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

type Window struct {
	Handle  *glfw.Window
	resized bool
}

func New() (*Window, error) {
	return &Window{}, nil
}

// Open creates and shows a Vulkan-ready (no client API) window at (x, y)
// sized width x height.
func (w *Window) Open(title string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	handle, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	w.Handle = handle

	w.Handle.SetFramebufferSizeCallback(func(_ *glfw.Window, fbWidth, fbHeight int) {
		core.LogDebug("platform: framebuffer resized to %dx%d", fbWidth, fbHeight)
		w.resized = true
	})
	w.Handle.SetPos(int(x), int(y))
	w.Handle.Show()
	return nil
}

// ShouldClose reports whether the user requested the window close.
func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// PumpMessages processes queued OS events; call once per frame.
func (w *Window) PumpMessages() {
	glfw.PollEvents()
}

func (w *Window) FramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

// ConsumeResize reports whether the framebuffer size callback fired since
// the last call, clearing the flag. Mirrors the teacher's
// RendererSystem.Resizing latch (engine/systems/renderer.go), minus the
// frame-count debounce: the caller (testbed.Game.Run) skips exactly one
// frame per resize rather than waiting out a fixed number of frames, since
// this reference backend has no swapchain to recreate on a timer.
func (w *Window) ConsumeResize() bool {
	if w.resized {
		w.resized = false
		return true
	}
	return false
}

// RequiredInstanceExtensions returns the VK_KHR_surface + platform surface
// extension names glfw needs to create a Vulkan surface for this window.
func (w *Window) RequiredInstanceExtensions() []string {
	return glfw.GetRequiredInstanceExtensions()
}

func (w *Window) Close() error {
	glfw.Terminate()
	return nil
}
