package main

import (
	"fmt"
	"strings"

	"infond.dev/internal/protocol"
)

// Sprite bases as sent by the server.
const (
	spriteBorder = 1
	spriteSolid  = 5
	spritePlain  = 9
	spriteKoth   = 13
)

// Mirror is the client-side copy of the grid.
type Mirror struct {
	w, h    int
	sprites []uint8
	food    []uint8
}

func (m *Mirror) Apply(msg protocol.Message) error {
	switch v := msg.(type) {
	case protocol.WorldInfo:
		m.w, m.h = int(v.Width), int(v.Height)
		m.sprites = make([]uint8, m.w*m.h)
		m.food = make([]uint8, m.w*m.h)
		for i := range m.food {
			m.food[i] = protocol.FoodEmpty
		}
	case protocol.WorldUpdate:
		x, y := int(v.X), int(v.Y)
		if x >= m.w || y >= m.h {
			return fmt.Errorf("update %d,%d outside %dx%d grid", x, y, m.w, m.h)
		}
		m.sprites[y*m.w+x] = v.Sprite
		m.food[y*m.w+x] = v.Food
	case protocol.RawPacket:
		// Unknown packet types are skipped.
	}
	return nil
}

func (m *Mirror) Size() (int, int) { return m.w, m.h }

// Walkable counts tiles with a plain or KOTH sprite.
func (m *Mirror) Walkable() int {
	n := 0
	for _, s := range m.sprites {
		if s >= spritePlain {
			n++
		}
	}
	return n
}

func (m *Mirror) FoodTiles() int {
	n := 0
	for _, f := range m.food {
		if f != protocol.FoodEmpty {
			n++
		}
	}
	return n
}

// Render draws the grid: '#' border, ' ' rock, '.' cave, 'K' king of the
// hill, a digit for the food level on a tile.
func (m *Mirror) Render() string {
	var b strings.Builder
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			i := y*m.w + x
			s, f := m.sprites[i], m.food[i]
			switch {
			case s == spriteKoth:
				b.WriteByte('K')
			case f != protocol.FoodEmpty:
				if f > 9 {
					f = 9
				}
				b.WriteByte('0' + f)
			case s >= spritePlain:
				b.WriteByte('.')
			case s >= spriteSolid:
				b.WriteByte(' ')
			case s >= spriteBorder:
				b.WriteByte('#')
			default:
				b.WriteByte('?')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
