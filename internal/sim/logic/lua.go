package logic

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

var (
	errNoHost = errors.New("world functions are only available inside world_tick")
	errClosed = errors.New("lua logic closed")
)

// Lua runs game logic from a script. The script defines world_init(), which
// returns width, height, koth_x, koth_y, and world_tick(). The world_* functions
// registered below call back into the host during world_tick.
type Lua struct {
	L    *lua.LState
	path string
	host Host
}

func NewLua(path string) (*Lua, error) {
	if path == "" {
		return nil, fmt.Errorf("lua logic: empty script path")
	}
	p := &Lua{L: lua.NewState(), path: path}
	p.register()
	if err := p.L.DoFile(path); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// NewLuaString is like NewLua but loads the script from source text.
func NewLuaString(name, src string) (*Lua, error) {
	p := &Lua{L: lua.NewState(), path: name}
	p.register()
	if err := p.L.DoString(src); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return p, nil
}

func (p *Lua) register() {
	fns := map[string]lua.LGFunction{
		"world_dig":         p.luaDig,
		"world_add_food":    p.luaAddFood,
		"world_eat_food":    p.luaEatFood,
		"world_get_food":    p.luaGetFood,
		"world_is_walkable": p.luaWalkable,
		"world_find_digged": p.luaFindDigged,
		"world_find_path":   p.luaFindPath,
		"world_size":        p.luaSize,
		"world_koth":        p.luaKoth,
	}
	for name, fn := range fns {
		p.L.SetGlobal(name, p.L.NewFunction(fn))
	}
}

func (p *Lua) Init() (Setup, error) {
	if p.L == nil {
		return Setup{}, errClosed
	}
	fn := p.L.GetGlobal("world_init")
	if fn.Type() != lua.LTFunction {
		return Setup{}, fmt.Errorf("%s: world_init is not a function", p.path)
	}
	if err := p.L.CallByParam(lua.P{Fn: fn, NRet: 4, Protect: true}); err != nil {
		return Setup{}, fmt.Errorf("calling world_init: %w", err)
	}
	s := Setup{
		Width:  int(lua.LVAsNumber(p.L.Get(-4))),
		Height: int(lua.LVAsNumber(p.L.Get(-3))),
		KothX:  int(lua.LVAsNumber(p.L.Get(-2))),
		KothY:  int(lua.LVAsNumber(p.L.Get(-1))),
	}
	p.L.Pop(4)
	return s, nil
}

func (p *Lua) Tick(h Host) error {
	if p.L == nil {
		return errClosed
	}
	fn := p.L.GetGlobal("world_tick")
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("%s: world_tick is not a function", p.path)
	}
	p.host = h
	defer func() { p.host = nil }()
	if err := p.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("calling world_tick: %w", err)
	}
	return nil
}

func (p *Lua) Close() error {
	if p.L != nil {
		p.L.Close()
		p.L = nil
	}
	return nil
}

func (p *Lua) hostOrRaise(L *lua.LState) Host {
	if p.host == nil {
		L.RaiseError("%s", errNoHost.Error())
	}
	return p.host
}

func (p *Lua) luaDig(L *lua.LState) int {
	h := p.hostOrRaise(L)
	L.Push(lua.LBool(h.Dig(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func (p *Lua) luaAddFood(L *lua.LState) int {
	h := p.hostOrRaise(L)
	L.Push(lua.LNumber(h.AddFood(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3))))
	return 1
}

func (p *Lua) luaEatFood(L *lua.LState) int {
	h := p.hostOrRaise(L)
	L.Push(lua.LNumber(h.EatFood(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3))))
	return 1
}

func (p *Lua) luaGetFood(L *lua.LState) int {
	h := p.hostOrRaise(L)
	L.Push(lua.LNumber(h.Food(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func (p *Lua) luaWalkable(L *lua.LState) int {
	h := p.hostOrRaise(L)
	L.Push(lua.LBool(h.IsWalkable(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func (p *Lua) luaFindDigged(L *lua.LState) int {
	h := p.hostOrRaise(L)
	x, y := h.FindRandomWalkable()
	L.Push(lua.LNumber(x))
	L.Push(lua.LNumber(y))
	return 2
}

// world_find_path(x1, y1, x2, y2) returns a list of {x=, y=} or nil.
func (p *Lua) luaFindPath(L *lua.LState) int {
	h := p.hostOrRaise(L)
	path, ok := h.FindPath(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	tbl := L.NewTable()
	for _, pt := range path {
		step := L.NewTable()
		step.RawSetString("x", lua.LNumber(pt.X))
		step.RawSetString("y", lua.LNumber(pt.Y))
		tbl.Append(step)
	}
	L.Push(tbl)
	return 1
}

func (p *Lua) luaSize(L *lua.LState) int {
	h := p.hostOrRaise(L)
	w, ht := h.Size()
	L.Push(lua.LNumber(w))
	L.Push(lua.LNumber(ht))
	return 2
}

func (p *Lua) luaKoth(L *lua.LState) int {
	h := p.hostOrRaise(L)
	x, y := h.Koth()
	L.Push(lua.LNumber(x))
	L.Push(lua.LNumber(y))
	return 2
}
