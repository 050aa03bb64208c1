package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// Image mirrors vulkan.VulkanImage (renderer/vulkan/image.go) — a handle
// plus the memory backing it — generalized to take its format, usage and
// sample count from a gpu.ImageDef instead of ImageCreate's fixed call
// sites (one per texture/depth/attachment kind in the original renderer).
type Image struct {
	ctx    *Context
	def    gpu.ImageDef
	handle vk.Image
	memory vk.DeviceMemory
}

func (c *Context) CreateImage(def gpu.ImageDef) (gpu.Image, error) {
	vkFormat := toVkFormat(def.Format)
	if vkFormat == vk.FormatUndefined && def.Format != gpu.FormatUnknown {
		return nil, fmt.Errorf("vulkan: create image: %w: unrecognized gpu.Format %d", core.ErrUnknown, def.Format)
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  def.Width,
			Height: def.Height,
			Depth:  max1(def.Depth),
		},
		MipLevels:   max1(def.MipCount),
		ArrayLayers: max1(def.LayerCount),
		Format:      vkFormat,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(toVkImageUsage(def.Usage)),
		Samples:     toVkSamples(def.Samples),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(c.Device, &createInfo, c.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vulkan: create image: %v", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.Device, handle, &memReqs)
	memReqs.Deref()

	memoryIndex := c.findMemoryIndex(memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex == -1 {
		vk.DestroyImage(c.Device, handle, c.Allocator)
		return nil, fmt.Errorf("vulkan: no suitable memory type for image")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(c.Device, &allocInfo, c.Allocator, &memory); res != vk.Success {
		vk.DestroyImage(c.Device, handle, c.Allocator)
		return nil, fmt.Errorf("vulkan: allocate image memory: %v", res)
	}
	if res := vk.BindImageMemory(c.Device, handle, memory, 0); res != vk.Success {
		return nil, fmt.Errorf("vulkan: bind image memory: %v", res)
	}

	return &Image{ctx: c, def: def, handle: handle, memory: memory}, nil
}

func (i *Image) Def() gpu.ImageDef { return i.def }

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// View adapts a vk.ImageView to gpu.ImageView. CreateImageView derives the
// aspect mask from the requested format rather than a caller-supplied
// vk.ImageAspectFlags (vulkan.ImageCreate took the aspect as a parameter;
// here the graph plan only ever describes the format it wants, so the
// aspect is inferred from it).
type View struct {
	image   *Image
	options gpu.ImageViewOptions
	handle  vk.ImageView
}

func (c *Context) CreateImageView(image gpu.Image, options gpu.ImageViewOptions) (gpu.ImageView, error) {
	img, ok := image.(*Image)
	if !ok {
		return nil, fmt.Errorf("vulkan: CreateImageView: image not created by this backend")
	}

	format := options.Format
	if format == gpu.FormatUnknown {
		format = img.def.Format
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if isDepthFormat(format) {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.handle,
		ViewType: vk.ImageViewType2d,
		Format:   toVkFormat(format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   options.BaseMip,
			LevelCount:     max1(options.MipCount),
			BaseArrayLayer: options.BaseLayer,
			LayerCount:     max1(options.LayerCount),
		},
	}

	var handle vk.ImageView
	if res := vk.CreateImageView(c.Device, &createInfo, c.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vulkan: create image view: %v", res)
	}
	return &View{image: img, options: options, handle: handle}, nil
}

func (v *View) Image() gpu.Image                   { return v.image }
func (v *View) Options() gpu.ImageViewOptions       { return v.options }
