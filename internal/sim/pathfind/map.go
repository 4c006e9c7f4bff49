package pathfind

// Map holds the solid/dug state of every cell. A dug cell is walkable.
type Map struct {
	w, h int
	dug  []bool
}

func NewMap(w, h int) *Map {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Map{w: w, h: h, dug: make([]bool, w*h)}
}

func (m *Map) Width() int  { return m.w }
func (m *Map) Height() int { return m.h }

func (m *Map) OnMap(x, y int) bool {
	return m != nil && x >= 0 && y >= 0 && x < m.w && y < m.h
}

func (m *Map) index(x, y int) int { return y*m.w + x }

// Walkable reports false for cells outside the map.
func (m *Map) Walkable(x, y int) bool {
	if !m.OnMap(x, y) {
		return false
	}
	return m.dug[m.index(x, y)]
}

// Dig marks the cell walkable. It returns false if the cell is off the map or
// was already dug.
func (m *Map) Dig(x, y int) bool {
	if !m.OnMap(x, y) {
		return false
	}
	i := m.index(x, y)
	if m.dug[i] {
		return false
	}
	m.dug[i] = true
	return true
}

// Release drops the cell storage. The map reports every cell off-map afterwards.
func (m *Map) Release() {
	if m == nil {
		return
	}
	m.dug = nil
	m.w, m.h = 0, 0
}
