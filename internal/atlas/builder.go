package atlas

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io/fs"
	"runtime"

	"voxelshade/internal/voxel"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Faces holds one image path per orientation.
type Faces [voxel.OrientationCount]string

// AllFaces uses the same image on every face.
func AllFaces(path string) Faces {
	var f Faces
	for i := range f {
		f[i] = path
	}
	return f
}

// SideFaces uses separate images for the top and bottom and one for the
// four sides.
func SideFaces(top, side, bottom string) Faces {
	f := AllFaces(side)
	f[voxel.Top] = top
	f[voxel.Bottom] = bottom
	return f
}

type entry struct {
	id    voxel.BlockID
	faces Faces
}

// Builder collects block registrations and packs them on Finish. It is not
// safe for concurrent use.
type Builder struct {
	fsys     fs.FS
	log      *zap.Logger
	entries  []entry
	seen     map[voxel.BlockID]bool
	finished bool
}

func NewBuilder(fsys fs.FS, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{fsys: fsys, log: log, seen: make(map[voxel.BlockID]bool)}
}

// Add registers id. Rows are assigned in registration order.
func (b *Builder) Add(id voxel.BlockID, faces Faces) {
	if b.finished {
		panic("atlas: Add after Finish")
	}
	if b.seen[id] {
		panic(fmt.Sprintf("atlas: block %d registered twice", id))
	}
	b.seen[id] = true
	b.entries = append(b.entries, entry{id: id, faces: faces})
}

// Finish decodes every referenced image and packs the atlas. Images that
// are not TileSize square are rescaled with nearest-neighbour filtering.
func (b *Builder) Finish(ctx context.Context) (*Atlas, error) {
	if b.finished {
		panic("atlas: Finish called twice")
	}
	b.finished = true

	var paths []string
	slot := make(map[string]int)
	for _, e := range b.entries {
		for _, p := range e.faces {
			if _, ok := slot[p]; !ok {
				slot[p] = len(paths)
				paths = append(paths, p)
			}
		}
	}

	images := make([]image.Image, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := b.decode(p)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := len(b.entries) + 1
	dst := image.NewRGBA(image.Rect(0, 0, Columns*TileSize, rows*TileSize))
	a := &Atlas{img: dst, rows: rows, row: make(map[voxel.BlockID]int, len(b.entries))}
	for r, e := range b.entries {
		a.row[e.id] = r
		for col, p := range e.faces {
			rect := image.Rect(col*TileSize, r*TileSize, (col+1)*TileSize, (r+1)*TileSize)
			src := images[slot[p]]
			draw.NearestNeighbor.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
		}
	}
	fillMissing(dst, rows-1)

	b.log.Info("atlas built",
		zap.Int("blocks", len(b.entries)),
		zap.Int("images", len(paths)),
		zap.Int("width", dst.Bounds().Dx()),
		zap.Int("height", dst.Bounds().Dy()))
	return a, nil
}

func (b *Builder) decode(path string) (image.Image, error) {
	f, err := b.fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	return img, nil
}

var (
	missingA = color.RGBA{255, 0, 255, 255}
	missingB = color.RGBA{0, 0, 0, 255}
)

// fillMissing paints a magenta/black checker across the given row.
func fillMissing(dst *image.RGBA, row int) {
	y0 := row * TileSize
	for y := 0; y < TileSize; y++ {
		for x := 0; x < Columns*TileSize; x++ {
			c := missingA
			if (x/(TileSize/2)+y/(TileSize/2))%2 == 1 {
				c = missingB
			}
			dst.SetRGBA(x, y0+y, c)
		}
	}
}
