// fieldpreview inspects the morphing field without a GPU: it writes
// grayscale slice images of the scalar field at a chosen demo time and
// prints surface statistics from the CPU polygonizer.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	isoflow "github.com/isoflow3d/isoflow"
	"github.com/isoflow3d/isoflow/hipy/mc"
)

func main() {
	t := flag.Float64("t", 0, "demo clock time to sample")
	size := flag.Int("size", 64, "lattice samples per axis")
	slices := flag.Int("slices", 4, "number of z slices to write")
	outDir := flag.String("out", "fieldpreview-out", "output directory")
	period := flag.Float64("period", 13.0, "seconds per morph shape")
	iso := flag.Float64("iso", 0.001, "iso value")
	flag.Parse()

	log := isoflow.NewDefaultLogger("fieldpreview", false)
	if *size < 4 {
		log.Fatalf("lattice size %d is below the minimum of 4", *size)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("%v", err)
	}

	field := isoflow.NewMorphField(*period)
	cc := field.Coefficients(*t)

	for s := 0; s < *slices; s++ {
		z := (float32(s) + 0.5) / float32(*slices)
		img := sliceImage(cc, *size, z, float32(*iso))
		name := filepath.Join(*outDir, fmt.Sprintf("slice_t%.2f_z%.2f.png", *t, z))
		if err := writePNG(name, img); err != nil {
			log.Fatalf("%v", err)
		}
		log.Infof("wrote %s", name)
	}

	tris := mc.Polygonize(func(p r3.Vec) float64 {
		return float64(isoflow.FieldEval(cc, [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}))
	}, *iso, *size, *size, *size)

	area := mc.SurfaceArea(tris)
	log.Infof("t=%.2f: %d triangles, surface area %.4f", *t, len(tris), area)
}

// sliceImage maps the field on one z plane to gray, marking the
// iso-level crossing band in white.
func sliceImage(cc [isoflow.FieldCoefficients]float32, size int, z, iso float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			p := [3]float32{
				float32(i) / float32(size-1),
				float32(j) / float32(size-1),
				z,
			}
			v := isoflow.FieldEval(cc, p) - iso
			g := uint8(127.5 + 127.5*clamp(v, -1, 1))
			if v > -0.02 && v < 0.02 {
				g = 255
			}
			img.SetGray(i, size-1-j, color.Gray{Y: g})
		}
	}
	return img
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
