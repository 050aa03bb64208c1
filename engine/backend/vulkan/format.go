package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// toVkFormat maps the planner's small format enum onto Vulkan's, the
// inverse of how vulkan.ImageCreate historically hardcoded a single
// vk.Format per call site — here the caller's gpu.Format picks it.
func toVkFormat(f gpu.Format) vk.Format {
	switch f {
	case gpu.FormatRGBA8UNorm:
		return vk.FormatR8g8b8a8Unorm
	case gpu.FormatBGRA8UNorm:
		return vk.FormatB8g8r8a8Unorm
	case gpu.FormatR16Float:
		return vk.FormatR16Sfloat
	case gpu.FormatRGBA16Float:
		return vk.FormatR16g16b16a16Sfloat
	case gpu.FormatD32Float:
		return vk.FormatD32Sfloat
	case gpu.FormatD24UNormS8UInt:
		return vk.FormatD24UnormS8Uint
	default:
		return vk.FormatUndefined
	}
}

func toVkSamples(samples uint8) vk.SampleCountFlagBits {
	switch samples {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	default:
		return vk.SampleCount1Bit
	}
}

func isDepthFormat(f gpu.Format) bool {
	return f == gpu.FormatD32Float || f == gpu.FormatD24UNormS8UInt
}

func toVkImageUsage(u gpu.ImageUsageFlags) vk.ImageUsageFlagBits {
	var out vk.ImageUsageFlagBits
	if u&gpu.ImageUsageColorAttachment != 0 {
		out |= vk.ImageUsageColorAttachmentBit
	}
	if u&gpu.ImageUsageDepthAttachment != 0 {
		out |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if u&gpu.ImageUsageSampled != 0 {
		out |= vk.ImageUsageSampledBit
	}
	if u&gpu.ImageUsageStorage != 0 {
		out |= vk.ImageUsageStorageBit
	}
	if u&gpu.ImageUsageTransferSrc != 0 {
		out |= vk.ImageUsageTransferSrcBit
	}
	if u&gpu.ImageUsageTransferDst != 0 {
		out |= vk.ImageUsageTransferDstBit
	}
	return out
}

func toVkBufferUsage(u gpu.BufferUsageFlags) vk.BufferUsageFlagBits {
	var out vk.BufferUsageFlagBits
	if u&gpu.BufferUsageVertex != 0 {
		out |= vk.BufferUsageVertexBufferBit
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= vk.BufferUsageIndexBufferBit
	}
	if u&gpu.BufferUsageUniform != 0 {
		out |= vk.BufferUsageUniformBufferBit
	}
	if u&gpu.BufferUsageStorage != 0 {
		out |= vk.BufferUsageStorageBufferBit
	}
	if u&gpu.BufferUsageTransferSrc != 0 {
		out |= vk.BufferUsageTransferSrcBit
	}
	if u&gpu.BufferUsageTransferDst != 0 {
		out |= vk.BufferUsageTransferDstBit
	}
	return out
}

// resourceStateMapping is what a backend's barrier translation layer looks
// up per gpu.ResourceState: the planner only reasons in these five states
// (gpu.ResourceState doc comment), so this is the one place that expands a
// state into Vulkan's native layout/access/stage triple.
type resourceStateMapping struct {
	layout vk.ImageLayout
	access vk.AccessFlagBits
	stage  vk.PipelineStageFlagBits
}

func mapResourceState(s gpu.ResourceState) resourceStateMapping {
	switch s {
	case gpu.ResourceStateRenderTarget:
		return resourceStateMapping{vk.ImageLayoutColorAttachmentOptimal, vk.AccessColorAttachmentWriteBit, vk.PipelineStageColorAttachmentOutputBit}
	case gpu.ResourceStateDepthWrite:
		return resourceStateMapping{vk.ImageLayoutDepthStencilAttachmentOptimal, vk.AccessDepthStencilAttachmentWriteBit, vk.PipelineStageEarlyFragmentTestsBit}
	case gpu.ResourceStatePixelShaderResource:
		return resourceStateMapping{vk.ImageLayoutShaderReadOnlyOptimal, vk.AccessShaderReadBit, vk.PipelineStageFragmentShaderBit}
	case gpu.ResourceStateUnorderedAccess:
		return resourceStateMapping{vk.ImageLayoutGeneral, vk.AccessShaderReadBit | vk.AccessShaderWriteBit, vk.PipelineStageComputeShaderBit}
	default:
		return resourceStateMapping{vk.ImageLayoutUndefined, 0, vk.PipelineStageTopOfPipeBit}
	}
}

func toVkLoadOp(op gpu.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case gpu.LoadOpLoad:
		return vk.AttachmentLoadOpLoad
	case gpu.LoadOpClear:
		return vk.AttachmentLoadOpClear
	default:
		return vk.AttachmentLoadOpDontCare
	}
}

func toVkStoreOp(op gpu.StoreOp) vk.AttachmentStoreOp {
	if op == gpu.StoreOpStore {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}
