package provider

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/robalobadob/pidro/assets"
	"github.com/robalobadob/pidro/internal/cards"
)

// Lua is a Backend that runs a local bot script. The script defines a
// global function choose(state) returning a move token.
type Lua struct {
	script string
}

// NewLua wraps script; an empty script selects the built-in bot.
func NewLua(script string) *Lua {
	if script == "" {
		script = assets.DefaultBot()
	}
	return &Lua{script: script}
}

func (l *Lua) Name() string { return "lua" }

// Complete runs the script in a fresh interpreter bounded by ctx.
func (l *Lua) Complete(ctx context.Context, req Request) (string, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(l.script); err != nil {
		return "", l.fail(ctx, err)
	}
	fn := L.GetGlobal("choose")
	if fn.Type() != lua.LTFunction {
		return "", &TransportError{Provider: l.Name(), Err: errors.New("script does not define choose(state)")}
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, l.stateTable(L, req)); err != nil {
		return "", l.fail(ctx, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	if ret.Type() == lua.LTNil {
		return "", &ParseError{Provider: l.Name(), Reason: "choose returned nil"}
	}
	return lua.LVAsString(ret), nil
}

func (l *Lua) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &TransportError{Provider: l.Name(), Err: err}
}

func (l *Lua) stateTable(L *lua.LState, req Request) *lua.LTable {
	v := req.View
	list := func(items []string) *lua.LTable {
		t := L.NewTable()
		for _, s := range items {
			t.Append(lua.LString(s))
		}
		return t
	}

	t := L.NewTable()
	t.RawSetString("phase", lua.LString(v.Phase))
	t.RawSetString("position", lua.LString(v.Position))
	t.RawSetString("dealer", lua.LBool(v.IsDealer))
	t.RawSetString("current_bid", lua.LNumber(v.CurrentBid))
	t.RawSetString("hand", list(cards.Strings(v.Cards)))
	t.RawSetString("legal", list(req.Legal))
	trick := make([]string, len(v.Trick))
	for i, p := range v.Trick {
		trick[i] = p.Card.String()
	}
	t.RawSetString("trick", list(trick))
	if v.Trump != nil {
		t.RawSetString("trump", lua.LString(v.Trump.String()))
	}
	scores := L.NewTable()
	scores.Append(lua.LNumber(v.Scores[0]))
	scores.Append(lua.LNumber(v.Scores[1]))
	t.RawSetString("scores", scores)
	return t
}
