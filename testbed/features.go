package testbed

import (
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/pipeline"
)

// meshFeature draws the single quad the demo's world pass holds; it binds
// no texture. It sets only Prepare and Write of the stage contract
// documented on pipeline.Feature: Prepare pushes one submit node into the
// opaque phase, Write issues the draw when the graph plan dispatches it.
func (g *Game) meshFeature() *pipeline.Feature {
	type prepared struct{ submitNodeID uint32 }

	return &pipeline.Feature{
		Name:  "mesh",
		Index: g.mesh,
		Prepare: func(fc *pipeline.FrameContext, frameData any, submit *pipeline.ViewSubmitPacket) (any, error) {
			submit.PushNodes(g.opaque, pipeline.SubmitNode{
				FeatureIndex: fc.Feature, RenderObjectInstanceID: 1, SubmitNodeID: 1, Sort: 0,
			})
			return &prepared{submitNodeID: 1}, nil
		},
		Write: func(fc *pipeline.FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder) {
			encoder.DrawIndexed(6, 1, 0, 0, 0)
		},
	}
}

// textFeature lays a short string out with g.font and draws one quad per
// glyph, the UI phase's only submitter.
func (g *Game) textFeature() *pipeline.Feature {
	return &pipeline.Feature{
		Name:  "text",
		Index: g.text,
		Prepare: func(fc *pipeline.FrameContext, frameData any, submit *pipeline.ViewSubmitPacket) (any, error) {
			glyphs := g.font.Layout("forgegraph")
			nodes := make([]pipeline.SubmitNode, len(glyphs))
			for i := range glyphs {
				nodes[i] = pipeline.SubmitNode{
					FeatureIndex: fc.Feature, RenderObjectInstanceID: 0,
					SubmitNodeID: uint32(i + 1), Sort: float32(i),
				}
			}
			submit.PushNodes(g.uiText, nodes...)
			return glyphs, nil
		},
		Write: func(fc *pipeline.FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder) {
			glyphs, _ := preparedData.([]Glyph)
			if int(submitNodeID) < 1 || int(submitNodeID) > len(glyphs) {
				return
			}
			encoder.DrawIndexed(6, 1, 0, 0, 0)
		},
	}
}
