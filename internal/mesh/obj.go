package mesh

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
)

// objCorner identifies one face corner by its position/texcoord/normal indices.
// Missing indices are -1.
type objCorner struct {
	v, vt, vn int
}

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", path, err)
	}
	return s, nil
}

// ParseOBJ parses OBJ text. Every distinct (v, vt, vn) corner becomes one
// snapshot vertex, so texture seams show up as split vertices. Polygons are
// fan-triangulated. Vertex colors given as "v x y z r g b" are kept.
func ParseOBJ(r io.Reader) (*Snapshot, error) {
	var (
		pos     [][3]float32
		cols    []color.NRGBA
		hasCols = true
		uvs     [][2]float32
		norms   [][3]float32
	)

	s := &Snapshot{}
	corners := make(map[objCorner]int)
	var anyNormal bool

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("line %d: bad vertex: %w", lineNo, ErrInvalidMesh)
			}
			pos = append(pos, [3]float32{vals[0], vals[1], vals[2]})
			if len(vals) >= 6 {
				cols = append(cols, color.NRGBA{
					R: unitToByte(vals[3]), G: unitToByte(vals[4]), B: unitToByte(vals[5]), A: 255,
				})
			} else {
				hasCols = false
			}
		case "vt":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 2 {
				return nil, fmt.Errorf("line %d: bad texcoord: %w", lineNo, ErrInvalidMesh)
			}
			uvs = append(uvs, [2]float32{vals[0], vals[1]})
		case "vn":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("line %d: bad normal: %w", lineNo, ErrInvalidMesh)
			}
			norms = append(norms, [3]float32{vals[0], vals[1], vals[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face with %d corners: %w", lineNo, len(fields)-1, ErrInvalidMesh)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				c, err := parseCorner(tok, len(pos), len(uvs), len(norms))
				if err != nil {
					return nil, fmt.Errorf("line %d: %v: %w", lineNo, err, ErrInvalidMesh)
				}
				vi, ok := corners[c]
				if !ok {
					vi = len(s.Positions)
					corners[c] = vi
					s.Positions = append(s.Positions, pos[c.v])
					var uv [2]float32
					if c.vt >= 0 {
						uv = uvs[c.vt]
					}
					s.UVs = append(s.UVs, uv)
					var n [3]float32
					if c.vn >= 0 {
						n = norms[c.vn]
						anyNormal = true
					}
					s.Normals = append(s.Normals, n)
				}
				idx = append(idx, vi)
			}
			for k := 1; k+1 < len(idx); k++ {
				s.Triangles = append(s.Triangles, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if !anyNormal {
		s.Normals = nil
	}
	if hasCols && len(cols) == len(pos) && len(pos) > 0 {
		s.Colors = make([]color.NRGBA, len(s.Positions))
		for c, vi := range corners {
			s.Colors[vi] = cols[c.v]
		}
	}
	return s, nil
}

func parseCorner(tok string, nv, nvt, nvn int) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	resolve := func(s string, n int) (int, error) {
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("bad index %q", s)
		}
		if i < 0 {
			i = n + i
		} else {
			i--
		}
		if i < 0 || i >= n {
			return 0, fmt.Errorf("index %q out of range", s)
		}
		return i, nil
	}

	var err error
	if c.v, err = resolve(parts[0], nv); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolve(parts[1], nvt); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolve(parts[2], nvn); err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func unitToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// WriteOBJ writes s as OBJ with one v/vt(/vn) per snapshot vertex.
// Vertex colors, when present, are written as "v x y z r g b".
func WriteOBJ(w io.Writer, s *Snapshot) error {
	bw := bufio.NewWriter(w)
	hasNormals := len(s.Normals) == len(s.Positions) && len(s.Positions) > 0
	for i, p := range s.Positions {
		if s.HasColors() {
			c := s.Colors[i]
			fmt.Fprintf(bw, "v %g %g %g %.4f %.4f %.4f\n", p[0], p[1], p[2],
				float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
		}
	}
	for _, uv := range s.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv[0], uv[1])
	}
	if hasNormals {
		for _, n := range s.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
	}
	for _, t := range s.Triangles {
		if hasNormals {
			fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n",
				t[0]+1, t[0]+1, t[0]+1, t[1]+1, t[1]+1, t[1]+1, t[2]+1, t[2]+1, t[2]+1)
		} else {
			fmt.Fprintf(bw, "f %d/%d %d/%d %d/%d\n", t[0]+1, t[0]+1, t[1]+1, t[1]+1, t[2]+1, t[2]+1)
		}
	}
	return bw.Flush()
}
