// Package wasm runs WebAssembly line plugins that set trial variables.
//
// A plugin is a WASI module exporting abi_version, alloc, free and
// parse_extra_line. The host writes one JSON document per line at
// InputRegion and parse_extra_line returns (out_len << 32) | out_ptr of a
// JSON reply:
//
//	in:  {"line": "MSG 12 RESP left", "num": 7, "tokens": ["MSG", "12", "RESP", "left"], "phase": "probe"}
//	out: {"ok": true, "vars": [{"name": "response", "value": "left"}]}
//	out: {"ok": false, "error": "bad line", "code": "E_LINE"}
//
// Plugins may import regex_match, regex_find_submatch, log and now_ms from
// the "env" module.
package wasm

import (
	"errors"
	"fmt"
)

var (
	ErrABIVersionMismatch = errors.New("abi version mismatch")
	ErrTimeout            = errors.New("plugin timeout")
	ErrFileTooLarge       = errors.New("wasm file too large")
	ErrClosed             = errors.New("plugin is closed")
)

// ABIError reports a plugin that does not follow the calling convention.
type ABIError struct {
	Function string
	Reason   string
}

func (e *ABIError) Error() string {
	return fmt.Sprintf("abi error in %s: %s", e.Function, e.Reason)
}

// PluginError is an error reply from a plugin, or a reply the host could
// not accept.
type PluginError struct {
	Code    string
	Message string
}

func (e *PluginError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plugin error %s: %s", e.Code, e.Message)
	}
	return "plugin error: " + e.Message
}

// RuntimeError wraps a wazero failure with the step that failed.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("wasm %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
