package render

import "github.com/go-gl/mathgl/mgl32"

// Face texture layout: every face owns a FaceTexels x FaceTexels block and
// blocks are packed FacesPerRow to a row.
const (
	FaceTexels  = 16
	FacesPerRow = 64
)

// Alpha encoding of face texels.
const (
	// PendingBit marks a texel rasterized this frame and not yet lit.
	PendingBit = 0x80
	// Processed is the alpha of a texel the lighting pass has written.
	Processed = 0x7F
)

// FaceTextureSize returns the texture dimensions for n faces.
func FaceTextureSize(n int) (w, h int) {
	return FaceTexels * min(FacesPerRow, n), FaceTexels * ((n + FacesPerRow - 1) / FacesPerRow)
}

// FaceTexel maps a face and its local uv in [0,1) to a texel.
func FaceTexel(face int, u, v float32) (x, y int) {
	tu := min(max(int(u*FaceTexels), 0), FaceTexels-1)
	tv := min(max(int(v*FaceTexels), 0), FaceTexels-1)
	return face%FacesPerRow*FaceTexels + tu, face/FacesPerRow*FaceTexels + tv
}

// TexelFace is the inverse of FaceTexel, returning the texel center uv.
func TexelFace(x, y int) (face int, u, v float32) {
	face = y/FaceTexels*FacesPerRow + x/FaceTexels
	u = (float32(x%FaceTexels) + 0.5) / FaceTexels
	v = (float32(y%FaceTexels) + 0.5) / FaceTexels
	return face, u, v
}

func IsPending(alpha uint8) bool { return alpha&PendingBit != 0 }

func IsProcessed(alpha uint8) bool { return alpha == Processed }

// EncodeLit packs a lit value as the compute pass stores it.
func EncodeLit(c mgl32.Vec3) [4]uint8 {
	q := func(f float32) uint8 {
		return uint8(min(max(f, 0), 1)*255 + 0.5)
	}
	return [4]uint8{q(c.X()), q(c.Y()), q(c.Z()), Processed}
}

// Resolve is the color pass decision for one fragment: lit texels
// modulate the albedo, anything else falls back to ambient.
func Resolve(albedo mgl32.Vec3, texel [4]uint8, ambient float32) mgl32.Vec3 {
	if !IsProcessed(texel[3]) {
		return albedo.Mul(ambient)
	}
	lit := mgl32.Vec3{float32(texel[0]) / 255, float32(texel[1]) / 255, float32(texel[2]) / 255}
	return mgl32.Vec3{albedo.X() * lit.X(), albedo.Y() * lit.Y(), albedo.Z() * lit.Z()}
}
