package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// GridV1 is a full export of the tile grid. Cells are stored row-major
// (index = y*Width + x).
type GridV1 struct {
	Header Header `json:"header"`

	Seed        int64 `json:"seed"`
	TickRate    int   `json:"tick_rate_hz"`
	MaxTileFood int   `json:"max_tile_food"`

	Width  int `json:"width"`
	Height int `json:"height"`
	KothX  int `json:"koth_x"`
	KothY  int `json:"koth_y"`

	Sprites  []uint8 `json:"sprites"`
	Food     []int   `json:"food"`
	Walkable []bool  `json:"walkable"`
}

// Validate checks that the cell arrays match the declared dimensions.
func (g GridV1) Validate() error {
	n := g.Width * g.Height
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("bad dimensions %dx%d", g.Width, g.Height)
	}
	if len(g.Sprites) != n || len(g.Food) != n || len(g.Walkable) != n {
		return fmt.Errorf("cell count mismatch: want %d got sprites=%d food=%d walkable=%d",
			n, len(g.Sprites), len(g.Food), len(g.Walkable))
	}
	return nil
}

func WriteGrid(path string, g GridV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(g.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&g); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return bw.Flush()
}

func ReadGrid(path string) (GridV1, error) {
	var g GridV1
	f, err := os.Open(path)
	if err != nil {
		return g, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return g, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The header line is for tools that only peek; gob carries it too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return g, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&g); err != nil {
		return g, fmt.Errorf("gob decode: %w", err)
	}
	if g.Header.Version != Version {
		return g, fmt.Errorf("unsupported grid export version %d", g.Header.Version)
	}
	return g, g.Validate()
}

// ReadHeader returns only the header line of an export.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	err = json.Unmarshal(line, &h)
	return h, err
}
