package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// Buffer adapts a Vulkan buffer + its backing memory to gpu.Buffer, the
// way VulkanBuffer (renderer/vulkan/context.go) paired a vk.Buffer handle
// with its vk.DeviceMemory, minus the generation/lock bookkeeping the
// original geometry-upload path needed and this one doesn't.
type Buffer struct {
	ctx    *Context
	def    gpu.BufferDef
	handle vk.Buffer
	memory vk.DeviceMemory
	size   uint64
	mapped unsafe.Pointer
}

func (c *Context) CreateBuffer(def gpu.BufferDef) (gpu.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(def.Size),
		Usage:       vk.BufferUsageFlags(toVkBufferUsage(def.Usage)),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(c.Device, &createInfo, c.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vulkan: create buffer: %v", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.Device, handle, &memReqs)
	memReqs.Deref()

	memoryFlags := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	memoryIndex := c.findMemoryIndex(memReqs.MemoryTypeBits, memoryFlags)
	if memoryIndex == -1 {
		vk.DestroyBuffer(c.Device, handle, c.Allocator)
		return nil, fmt.Errorf("vulkan: no suitable memory type for buffer")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(c.Device, &allocInfo, c.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(c.Device, handle, c.Allocator)
		return nil, fmt.Errorf("vulkan: allocate buffer memory: %v", res)
	}
	if res := vk.BindBufferMemory(c.Device, handle, memory, 0); res != vk.Success {
		return nil, fmt.Errorf("vulkan: bind buffer memory: %v", res)
	}

	return &Buffer{ctx: c, def: def, handle: handle, memory: memory, size: def.Size}, nil
}

func (b *Buffer) Def() gpu.BufferDef { return b.def }

func (b *Buffer) Map() ([]byte, error) {
	var data unsafe.Pointer
	if res := vk.MapMemory(b.ctx.Device, b.memory, 0, vk.DeviceSize(b.size), 0, &data); res != vk.Success {
		return nil, fmt.Errorf("vulkan: map buffer: %v", res)
	}
	b.mapped = data
	return unsafe.Slice((*byte)(data), b.size), nil
}

func (b *Buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(b.ctx.Device, b.memory)
	b.mapped = nil
}

func (b *Buffer) CopyToHostVisible(data []byte) error {
	dst, err := b.Map()
	if err != nil {
		return err
	}
	defer b.Unmap()
	copy(dst, data)
	return nil
}
