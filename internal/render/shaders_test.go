package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterPassesShareInvariantVertexStage(t *testing.T) {
	vert := DepthProgram.Vertex
	require.NotEmpty(t, vert)
	assert.Contains(t, vert, "invariant gl_Position;")
	assert.Equal(t, vert, FaceVisibilityProgram.Vertex)
	assert.Equal(t, vert, ColorProgram.Vertex)
	assert.Empty(t, LightingProgram.Vertex)
	assert.NotEmpty(t, LightingProgram.Compute)
}
