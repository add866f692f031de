package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uv-mask-maker/internal/bmd"
	"uv-mask-maker/internal/filter"
	"uv-mask-maker/internal/mathutil"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/postprocess"
	"uv-mask-maker/internal/raster"
	"uv-mask-maker/internal/texture"
	"uv-mask-maker/internal/uv"
)

func main() {
	texDir := flag.String("tex", "", "Texture directory used to resolve BMD texture names")
	size := flag.Int("size", 256, "Label map size for coverage figures")
	flag.Parse()

	var cache *texture.Cache
	if *texDir != "" {
		cache = texture.NewCache(texture.BuildIndex(*texDir))
	}

	for _, arg := range flag.Args() {
		if strings.EqualFold(filepath.Ext(arg), ".bmd") {
			meshes, err := bmd.Parse(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
				continue
			}
			fmt.Printf("\n=== %s (meshes=%d) ===\n", arg, len(meshes))
			fmt.Printf("  Textures: %s\n", strings.Join(filter.Textures(meshes), ", "))
			for i, m := range meshes {
				s, err := mesh.FromBMD(m)
				if err != nil {
					fmt.Printf("  Mesh[%d]: %v\n", i, err)
					continue
				}
				flags := ""
				if filter.IsEffectMesh(&m) {
					flags += " [EFFECT]"
				}
				if filter.IsBodyMesh(&m) {
					flags += " [BODY]"
				}
				fmt.Printf("  Mesh[%d] tex=%q%s%s\n", i, m.TexPath, texInfo(cache, m.TexPath), flags)
				report(s, *size, "    ")
			}
			continue
		}

		s, err := mesh.Load(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load error %s: %v\n", arg, err)
			continue
		}
		fmt.Printf("\n=== %s ===\n", arg)
		report(s, *size, "  ")
	}
}

func texInfo(cache *texture.Cache, name string) string {
	if cache == nil || name == "" {
		return ""
	}
	tex := cache.Resolve(name)
	if tex == nil {
		return " (MISSING)"
	}
	b := tex.Bounds()
	return fmt.Sprintf(" (%dx%d)", b.Dx(), b.Dy())
}

func report(s *mesh.Snapshot, size int, indent string) {
	a, err := uv.Analyze(s)
	if err != nil {
		fmt.Printf("%sanalyze: %v\n", indent, err)
		return
	}
	lo, hi := mathutil.Bounds(s.Positions)
	ext := hi.Sub(lo)
	fmt.Printf("%sv=%d t=%d islands=%d borders=%d bbox=(%.1f,%.1f,%.1f)\n",
		indent, a.VertexCount(), len(a.Triangles), a.IslandCount(), len(a.BorderEdges),
		ext[0], ext[1], ext[2])

	lm, err := raster.BuildLabelMap(a, size, size)
	if err != nil {
		fmt.Printf("%sraster: %v\n", indent, err)
		return
	}
	covered := make([]bool, len(lm.Labels))
	for i, l := range lm.Labels {
		covered[i] = l != raster.NoIsland
	}
	regions := postprocess.Regions(covered, size, size)
	fmt.Printf("%scoverage=%.1f%% regions=%d (at %dx%d)\n", indent,
		100*float64(lm.Covered())/float64(size*size), len(regions), size, size)

	// Islands whose pixels are overwritten by later islands share UV space.
	for _, isl := range a.Islands {
		if lm.Coverage(isl.ID) == 0 && len(isl.Triangles) > 0 {
			b, _ := a.IslandUVBounds(isl.ID)
			fmt.Printf("%s  island %d (%d tris) has no visible pixels, uv=[%.3f,%.3f]-[%.3f,%.3f]\n",
				indent, isl.ID, len(isl.Triangles), b.Min[0], b.Min[1], b.Max[0], b.Max[1])
		}
	}
}
