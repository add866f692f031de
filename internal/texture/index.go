package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// extRank orders formats when one stem exists several times. Lower wins;
// formats with alpha come first.
var extRank = map[string]int{
	".ozt": 0, ".tga": 1, ".png": 2, ".webp": 3, ".gif": 4, ".bmp": 5,
	".ozj": 6, ".jpg": 7, ".jpeg": 7,
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir recursively for decodable images. BMD meshes name
// their texture with the extension the client shipped (often .jpg for an
// .ozj on disk), so lookups go by stem.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extRank[ext]
		if !ok {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists || rank < extRank[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	// Strip path prefix (e.g., "Monsters\\texture\\foo.jpg" → "foo")
	texName = strings.ReplaceAll(texName, "\\", "/")
	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
