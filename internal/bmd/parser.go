package bmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"uv-mask-maker/internal/crypto"
)

// maxMeshes bounds the sub-mesh count read from a header.
const maxMeshes = 100

// Parse reads a BMD file and returns its meshes.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func Parse(filepath string) ([]Mesh, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", filepath, err)
	}
	meshes, err := ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, filepath)
	}
	return meshes, nil
}

// ParseBytes decodes an in-memory BMD file.
func ParseBytes(raw []byte) ([]Mesh, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header")
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v%d header", version)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v%d data", version)
		}
		if version == 15 {
			if size%16 != 0 {
				return nil, fmt.Errorf("bmd: v15 payload of %d bytes is not block aligned", size)
			}
			data = crypto.DecryptLEA(raw[8:8+size], crypto.LEAKey)
		} else {
			data = crypto.DecryptXOR(raw[8 : 8+size])
		}
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	return r.parse()
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) readStr(n int) string {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *reader) readU16() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// parse reads the mesh section. Actions and bones follow it in the file but
// carry nothing the UV tools need, so reading stops after the last mesh.
func (r *reader) parse() ([]Mesh, error) {
	_ = r.readStr(32) // model name
	meshCount := int(r.readU16())
	_ = r.readU16() // bone count
	_ = r.readU16() // action count

	if meshCount > maxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	meshes := make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		nv := int(r.readI16())
		nn := int(r.readI16())
		ntc := int(r.readI16())
		nt := int(r.readI16())
		_ = r.readI16() // texture index

		if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
			return nil, fmt.Errorf("bmd: mesh %d has negative counts", i)
		}

		// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
		verts := make([][3]float32, nv)
		for j := 0; j < nv; j++ {
			_ = r.readI16() // bone node
			_ = r.readI16() // padding
			verts[j][0] = r.readF32()
			verts[j][1] = r.readF32()
			verts[j][2] = r.readF32()
		}

		// Normals: 20 bytes each (node:i16, pad:i16, nx:f32, ny:f32, nz:f32, bind:i16, pad:i16)
		normals := make([][3]float32, nn)
		for j := 0; j < nn; j++ {
			_ = r.readI16() // node
			_ = r.readI16() // padding
			normals[j][0] = r.readF32()
			normals[j][1] = r.readF32()
			normals[j][2] = r.readF32()
			_ = r.readI16() // bindVertex
			_ = r.readI16() // padding
		}

		// TexCoords: 8 bytes each (u:f32, v:f32)
		uvs := make([][2]float32, ntc)
		for j := 0; j < ntc; j++ {
			uvs[j][0] = r.readF32()
			uvs[j][1] = r.readF32()
		}

		// Triangles: 64 bytes each
		tris := make([]Triangle, 0, nt)
		for j := 0; j < nt; j++ {
			base := r.off
			if base+64 > len(r.data) {
				r.off = len(r.data)
				break
			}
			poly := int(r.data[base])
			var vi, ni, ti [4]int16
			for k := 0; k < 4; k++ {
				vi[k] = int16(binary.LittleEndian.Uint16(r.data[base+2+k*2:]))
			}
			for k := 0; k < 4; k++ {
				ni[k] = int16(binary.LittleEndian.Uint16(r.data[base+10+k*2:]))
			}
			for k := 0; k < 4; k++ {
				ti[k] = int16(binary.LittleEndian.Uint16(r.data[base+18+k*2:]))
			}
			tris = append(tris, Triangle{Polygon: poly, VI: vi, NI: ni, TI: ti})
			r.off += 64
		}

		texPath := r.readStr(32)
		// Normalize backslashes
		texPath = strings.ReplaceAll(texPath, "\\", "/")

		meshes = append(meshes, Mesh{
			Verts:   verts,
			Normals: normals,
			UVs:     uvs,
			Tris:    tris,
			TexPath: texPath,
		})
	}

	return meshes, nil
}
