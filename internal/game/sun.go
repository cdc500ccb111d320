package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/render"
)

// sunStep is the angle one sun step action moves the sun by.
const sunStep = math.Pi / 24

// SunClock animates the sun along its arc.
type SunClock struct {
	Angle  float32
	Speed  float32
	Frozen bool
}

// Advance moves the sun by dt seconds unless frozen.
func (s *SunClock) Advance(dt float64) {
	if s.Frozen {
		return
	}
	s.Angle = wrapAngle(s.Angle + s.Speed*float32(dt))
}

// Step moves the sun by n steps, frozen or not.
func (s *SunClock) Step(n int) {
	s.Angle = wrapAngle(s.Angle + float32(n)*sunStep)
}

func (s *SunClock) Toggle() { s.Frozen = !s.Frozen }

// Direction is the unit vector toward the sun.
func (s *SunClock) Direction() mgl32.Vec3 {
	return render.SunDirection(s.Angle)
}

func wrapAngle(a float32) float32 {
	a = float32(math.Mod(float64(a), 2*math.Pi))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
