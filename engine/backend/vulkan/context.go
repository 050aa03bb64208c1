// Package vulkan is the reference gpu.Device/gpu.CommandEncoder backend:
// a thin Vulkan adapter built on goki/vulkan, following the instance ->
// physical device -> logical device -> command pool sequence of
// vulkan.DeviceCreate, trimmed to what the frame orchestrator's resource
// pool and pass executor actually call through the gpu package's
// interfaces. It is wired from testbed, never imported by engine/graph or
// engine/pipeline themselves, which stay backend-agnostic.
package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/forgegraph/engine/core"
)

// Context holds the Vulkan handles every Device method needs. Unlike the
// original engine's VulkanContext it carries no swapchain/renderpass
// registry state: pass-level resources (framebuffers, render passes) are
// derived per-frame from the graph plan's Pass descriptions instead of
// being pre-registered globally.
type Context struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Allocator      *vk.AllocationCallbacks

	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue
	CommandPool        vk.CommandPool

	Memory vk.PhysicalDeviceMemoryProperties
}

// NewContext creates an Instance, selects the first discrete (falling back
// to any) physical device exposing a graphics queue family, creates a
// logical device and a graphics-queue command pool. Surface/swapchain
// creation is left to the caller (testbed's window integration) since the
// gpu.Device contract never references a swapchain directly.
func NewContext(appName string, instanceExtensions []string) (*Context, error) {
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan: init: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   appName + "\x00",
		PEngineName:        "forgegraph\x00",
	}

	extensions := append([]string{"VK_KHR_surface"}, instanceExtensions...)
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("vulkan: create instance: %v", res)
	}
	if err := vk.InitInstance(instance); err != nil {
		return nil, fmt.Errorf("vulkan: init instance: %w", err)
	}

	ctx := &Context{Instance: instance}
	if err := ctx.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := ctx.createLogicalDevice(); err != nil {
		return nil, err
	}
	if err := ctx.createCommandPool(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (c *Context) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(c.Instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("vulkan: no physical devices found")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(c.Instance, &count, devices)

	best := devices[0]
	for _, d := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(d, &props)
		props.Deref()
		if vk.PhysicalDeviceType(props.DeviceType) == vk.PhysicalDeviceTypeDiscreteGpu {
			best = d
			break
		}
	}
	c.PhysicalDevice = best
	vk.GetPhysicalDeviceMemoryProperties(c.PhysicalDevice, &c.Memory)
	c.Memory.Deref()

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(c.PhysicalDevice, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(c.PhysicalDevice, &familyCount, families)
	for i, f := range families {
		f.Deref()
		if vk.QueueFlagBits(f.QueueFlags)&vk.QueueGraphicsBit != 0 {
			c.GraphicsQueueIndex = uint32(i)
			return nil
		}
	}
	return fmt.Errorf("vulkan: no graphics-capable queue family")
}

func (c *Context) createLogicalDevice() error {
	priority := float32(1.0)
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: c.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueCreateInfo},
	}

	var device vk.Device
	if res := vk.CreateDevice(c.PhysicalDevice, &deviceCreateInfo, c.Allocator, &device); res != vk.Success {
		return fmt.Errorf("vulkan: create logical device: %v", res)
	}
	c.Device = device

	var queue vk.Queue
	vk.GetDeviceQueue(c.Device, c.GraphicsQueueIndex, 0, &queue)
	c.GraphicsQueue = queue
	return nil
}

func (c *Context) createCommandPool() error {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: c.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(c.Device, &poolCreateInfo, c.Allocator, &pool); res != vk.Success {
		return fmt.Errorf("vulkan: create command pool: %v", res)
	}
	c.CommandPool = pool
	return nil
}

// findMemoryIndex mirrors VulkanContext.FindMemoryIndex: the first memory
// type whose bit is set in typeFilter and whose property flags are a
// superset of the requested ones.
func (c *Context) findMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) int32 {
	for i := uint32(0); i < c.Memory.MemoryTypeCount; i++ {
		memType := c.Memory.MemoryTypes[i]
		if typeFilter&(1<<i) != 0 && vk.MemoryPropertyFlags(memType.PropertyFlags)&propertyFlags == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("vulkan: unable to find suitable memory type")
	return -1
}

// Destroy tears everything down in reverse creation order.
func (c *Context) Destroy() {
	if c.CommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.Device, c.CommandPool, c.Allocator)
	}
	if c.Device != vk.NullDevice {
		vk.DestroyDevice(c.Device, c.Allocator)
	}
	if c.Instance != vk.NullInstance {
		vk.DestroyInstance(c.Instance, c.Allocator)
	}
}
