// Package luatask hosts scheduler tasks written in Lua.
//
// A task file defines two global functions and, optionally, a name:
//
//	name = "claim-ticket"
//
//	function valid()
//	    return script.get("ticket") ~= nil
//	end
//
//	function execute()
//	    script.set("ticket", nil)
//	    script.sleep_between(300, 600)
//	end
//
// Each file gets its own sandboxed interpreter with only the base, table,
// string and math libraries; file loading and require are removed. The host
// API is the global table "script":
//
//	script.get(key)               -> string or nil
//	script.set(key, value)        -- nil value deletes
//	script.sleep(ms)              -> false if the script stopped
//	script.sleep_between(min, max)
//	script.runtime()              -> active seconds
//	script.total_runtime()        -> total seconds
//	script.suspended()            -> bool
//	script.log(msg)
//	script.track(page [, referrer])
//
// Sleeps hold while the script is suspended and end early when it stops.
package luatask
