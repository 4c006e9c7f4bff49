package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest hashes the layout and every cell of a grid. Two grids with the same
// digest look and behave the same; the header and tuning fields are not part
// of it.
func Digest(g GridV1) string {
	h := sha256.New()
	var tmp [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	writeU64(uint64(g.Width))
	writeU64(uint64(g.Height))
	writeU64(uint64(g.KothX))
	writeU64(uint64(g.KothY))
	h.Write(g.Sprites)
	for i := range g.Food {
		writeU64(uint64(g.Food[i]))
		if g.Walkable[i] {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Apply overwrites one cell. Off-grid coordinates are ignored.
func (g *GridV1) Apply(x, y int, sprite uint8, food int, walkable bool) bool {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	i := y*g.Width + x
	g.Sprites[i] = sprite
	g.Food[i] = food
	g.Walkable[i] = walkable
	return true
}
