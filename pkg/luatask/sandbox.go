package luatask

import (
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base functions that reach outside the interpreter.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"_printregs",
}

// newSandboxedState creates an interpreter with only the safe libraries open.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
