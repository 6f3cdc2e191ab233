package luatask

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/bft-labs/scriptd/pkg/log"
)

// hostFuncs builds the "script" table. The functions run only inside call,
// with t.mu held, so t.ctx is the context of the current call.
func (t *Task) hostFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"get":           t.luaGet,
		"set":           t.luaSet,
		"sleep":         t.luaSleep,
		"sleep_between": t.luaSleepBetween,
		"runtime":       t.luaRuntime,
		"total_runtime": t.luaTotalRuntime,
		"suspended":     t.luaSuspended,
		"log":           t.luaLog,
		"track":         t.luaTrack,
	}
}

func (t *Task) luaGet(L *lua.LState) int {
	key := L.CheckString(1)
	if v, ok := t.env.Settings().Get(key); ok {
		L.Push(lua.LString(v))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (t *Task) luaSet(L *lua.LState) int {
	key := L.CheckString(1)
	v := L.Get(2)
	if v == lua.LNil {
		t.env.Settings().Delete(key)
		return 0
	}
	t.env.Settings().Set(key, lua.LVAsString(L.ToStringMeta(v)))
	return 0
}

func (t *Task) luaSleep(L *lua.LState) int {
	ms := L.CheckInt64(1)
	L.Push(lua.LBool(t.env.Sleep(t.ctx, time.Duration(ms)*time.Millisecond)))
	return 1
}

func (t *Task) luaSleepBetween(L *lua.LState) int {
	min := L.CheckInt64(1)
	max := L.CheckInt64(2)
	ok := t.env.SleepBetween(t.ctx, time.Duration(min)*time.Millisecond, time.Duration(max)*time.Millisecond)
	L.Push(lua.LBool(ok))
	return 1
}

func (t *Task) luaRuntime(L *lua.LState) int {
	L.Push(lua.LNumber(t.env.ActiveRuntimeSeconds()))
	return 1
}

func (t *Task) luaTotalRuntime(L *lua.LState) int {
	L.Push(lua.LNumber(t.env.TotalRuntimeSeconds()))
	return 1
}

func (t *Task) luaSuspended(L *lua.LState) int {
	L.Push(lua.LBool(t.env.Suspended()))
	return 1
}

func (t *Task) luaLog(L *lua.LState) int {
	t.logger.Info(L.CheckString(1), log.String("source", "lua"))
	return 0
}

func (t *Task) luaTrack(L *lua.LState) int {
	t.env.Tracker().TrackPage(L.CheckString(1), L.OptString(2, ""))
	return 0
}
