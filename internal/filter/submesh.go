// Package filter chooses which BMD sub-meshes take part in mask making.
// Item models often carry glow planes, auras or the character body under
// an equipment piece; their UVs belong to other textures.
package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"uv-mask-maker/internal/bmd"
)

var gradientEffectRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

var effectPatterns = []string{
	"glow", "flare", "chrome", "effect", "aura", "shiny", "spark", "fire",
	"blur", "energy", "plasma", "shine", "halo", "trail", "gradation",
	"elec_light", "arrowlight", "lightmarks", "light_blue", "light_red",
	"alpha_line", "4x4", "shockwave", "swordeff", "circle_shield",
}

// bodyTextureRE matches character skin, face and hair textures found under
// helmets and armor.
var bodyTextureRE = regexp.MustCompile(`(?i)^(?:` +
	`hqskin(?:2)?(?:_)?class\d+` +
	`|skinclass\d+head` +
	`|nude_` +
	`|item\d+_head` +
	`|skin_(?:barbarian|warrior|class)` +
	`|level_man\d+` +
	`|(?:hq)?hair_r` +
	`)`)

// TextureStem returns the lowercase file stem of a BMD texture reference,
// accepting both slash styles.
func TextureStem(texPath string) string {
	base := filepath.Base(strings.ReplaceAll(strings.ToLower(texPath), "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsBodyMesh reports whether m is a character body, skin or hair mesh.
func IsBodyMesh(m *bmd.Mesh) bool {
	return bodyTextureRE.MatchString(TextureStem(m.TexPath))
}

// IsEffectMesh reports whether m is a glow or effect overlay, judged by its
// texture name or, for tiny meshes, by size.
func IsEffectMesh(m *bmd.Mesh) bool {
	stem := TextureStem(m.TexPath)
	if gradientEffectRE.MatchString(stem) || strings.HasPrefix(stem, "flame") {
		return true
	}
	for _, p := range effectPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}

	// Billboards: a couple of quads spanning little space.
	if len(m.Verts) == 0 || len(m.Verts) > 8 || len(m.Tris) > 4 {
		return false
	}
	lo, hi := m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	return max(hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]) <= 20
}

// Options selects sub-meshes. The zero value keeps everything.
type Options struct {
	SkipEffects bool
	SkipBody    bool
	Texture     string // keep only sub-meshes with this texture stem
}

// Keep reports whether m passes the options.
func (o Options) Keep(m *bmd.Mesh) bool {
	if o.Texture != "" && TextureStem(m.TexPath) != TextureStem(o.Texture) {
		return false
	}
	if o.SkipEffects && IsEffectMesh(m) {
		return false
	}
	if o.SkipBody && IsBodyMesh(m) {
		return false
	}
	return true
}

// Apply returns the sub-meshes that pass o, in file order.
func Apply(meshes []bmd.Mesh, o Options) []bmd.Mesh {
	out := make([]bmd.Mesh, 0, len(meshes))
	for i := range meshes {
		if o.Keep(&meshes[i]) {
			out = append(out, meshes[i])
		}
	}
	return out
}

// Textures lists the distinct texture stems of meshes in file order.
func Textures(meshes []bmd.Mesh) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range meshes {
		s := TextureStem(meshes[i].TexPath)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
