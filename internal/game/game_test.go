package game

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelshade/internal/atlas"
	"voxelshade/internal/input"
	"voxelshade/internal/meshing"
	"voxelshade/internal/render"
	"voxelshade/internal/voxel"
	"voxelshade/internal/world"
)

type fakeControls struct {
	held   map[input.Action]bool
	dx, dy float64
}

func (f fakeControls) IsActive(a input.Action) bool   { return f.held[a] }
func (f fakeControls) MouseDelta() (float64, float64) { return f.dx, f.dy }

func TestFlyCameraMovesAlongView(t *testing.T) {
	cam := render.NewCamera(1, 1)
	fly := FlyCamera{Speed: 10, Sensitivity: 0.1}

	fly.Update(cam, fakeControls{held: map[input.Action]bool{input.ActionMoveForward: true}}, 0.5)
	assert.InDelta(t, 5, cam.Position.X(), 1e-4)
	assert.InDelta(t, 0, cam.Position.Z(), 1e-4)

	fly.Update(cam, fakeControls{held: map[input.Action]bool{
		input.ActionMoveUp:       true,
		input.ActionMoveDown:     true,
		input.ActionMoveForward:  true,
		input.ActionMoveBackward: true,
	}}, 1)
	assert.InDelta(t, 5, cam.Position.X(), 1e-4, "opposite keys cancel")

	fly.Update(cam, fakeControls{
		held: map[input.Action]bool{input.ActionMoveUp: true, input.ActionSprint: true},
		dx:   900,
	}, 0.1)
	assert.InDelta(t, 3, cam.Position.Y(), 1e-4)
	assert.Equal(t, 90.0, cam.Yaw)
}

func TestSunClock(t *testing.T) {
	s := SunClock{Angle: 1, Speed: 0.5}
	s.Advance(2)
	assert.InDelta(t, 2, s.Angle, 1e-6)

	s.Toggle()
	s.Advance(10)
	assert.InDelta(t, 2, s.Angle, 1e-6)

	s.Step(-1)
	assert.InDelta(t, 2-math.Pi/24, s.Angle, 1e-6)

	s.Angle = 0
	s.Step(-1)
	assert.InDelta(t, 2*math.Pi-math.Pi/24, s.Angle, 1e-5)

	s.Angle = math.Pi / 2
	assert.Greater(t, s.Direction().Y(), float32(0.9))
}

func TestFPSLimiterInterval(t *testing.T) {
	f := NewFPSLimiter(0)
	assert.Zero(t, f.Interval(false))
	assert.Equal(t, time.Second/pausedFPS, f.Interval(true))

	f.SetLimit(100)
	assert.Equal(t, 10*time.Millisecond, f.Interval(false))
	assert.Equal(t, time.Second/pausedFPS, f.Interval(true))

	f.SetLimit(20)
	assert.Equal(t, 50*time.Millisecond, f.Interval(true))

	start := time.Now()
	f.SetLimit(200)
	f.Wait(false)
	f.Wait(false)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func testManager(t *testing.T) *world.Manager {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	b := atlas.NewBuilder(fstest.MapFS{"x.png": {Data: buf.Bytes()}}, nil)
	for id := voxel.Grass; id <= voxel.Glowstone; id++ {
		b.Add(id, atlas.AllFaces("x.png"))
	}
	a, err := b.Finish(context.Background())
	require.NoError(t, err)

	m := world.NewManager(world.ManagerConfig{
		Atlas:     a,
		Generator: world.LayeredGenerator{},
		Mesh:      meshing.DefaultOptions(),
	})
	m.AddChunk(voxel.ChunkCoord{})
	return m
}

func TestBreakAndPlace(t *testing.T) {
	m := testManager(t)
	eye := mgl32.Vec3{4.5, 6, 4.5}
	down := mgl32.Vec3{0, -1, 0}

	b, ok := BreakBlock(m, eye, down)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 4, Y: 3, Z: 4}, b)
	got, _ := m.TryGetBlock(b)
	assert.Equal(t, voxel.Air, got.ID)

	p, ok := PlaceAgainst(m, eye, down, PlaceBlock)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 4, Y: 3, Z: 4}, p, "placed on top of the dirt below")
	got, _ = m.TryGetBlock(p)
	assert.Equal(t, voxel.Cobblestone, got.ID)
}

func TestPickRespectsReach(t *testing.T) {
	m := testManager(t)

	_, _, ok := Pick(m, mgl32.Vec3{4.5, 12, 4.5}, mgl32.Vec3{0, -1, 0})
	assert.False(t, ok, "ground is 8 blocks away")

	_, ok = PlaceAgainst(m, mgl32.Vec3{4.5, 4.5, 4.5}, mgl32.Vec3{0, -1, 0}, PlaceBlock)
	assert.False(t, ok, "target cell holds the eye")
}
