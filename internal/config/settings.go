package config

import "sync"

// RenderSettings holds the render configuration that input can change at
// runtime.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int // in chunks
}

func NewRenderSettings(distance int) *RenderSettings {
	return &RenderSettings{renderDistance: ClampRenderDistance(distance)}
}

// RenderDistance returns the current render distance in chunks.
func (s *RenderSettings) RenderDistance() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderDistance
}

// SetRenderDistance stores distance clamped to the valid range and returns
// the stored value.
func (s *RenderSettings) SetRenderDistance(distance int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderDistance = ClampRenderDistance(distance)
	return s.renderDistance
}

// EvictDistance is the radius beyond which chunks are unloaded.
func (s *RenderSettings) EvictDistance() int {
	return s.RenderDistance() + 1
}
