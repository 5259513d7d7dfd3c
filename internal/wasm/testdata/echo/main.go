//go:build tinygo

// Command echo is a test plugin that reports the line number and the last
// word of every line.
package main

import (
	"encoding/json"
	"unsafe"
)

var heap uintptr = 0x20000

//export abi_version
func abiVersion() uint32 { return 1 }

//export alloc
func alloc(size uint32) uint32 {
	p := uint32(heap)
	heap += uintptr(size)
	return p
}

//export free
func free(ptr, size uint32) {}

type variable struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

//export parse_extra_line
func parseExtraLine(ptr, n uint32) uint64 {
	var in struct {
		Num    int      `json:"num"`
		Tokens []string `json:"tokens"`
	}
	if err := json.Unmarshal(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n), &in); err != nil {
		return fail("bad input")
	}
	if len(in.Tokens) == 0 {
		return send(map[string]any{"ok": true, "vars": []variable{}})
	}
	return send(map[string]any{
		"ok": true,
		"vars": []variable{
			{Name: "last_line", Value: in.Num},
			{Name: "last_word", Value: in.Tokens[len(in.Tokens)-1]},
		},
	})
}

func fail(msg string) uint64 {
	return send(map[string]any{"ok": false, "error": msg})
}

func send(v any) uint64 {
	b, _ := json.Marshal(v)
	p := alloc(uint32(len(b)))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), len(b)), b)
	return uint64(len(b))<<32 | uint64(p)
}

func main() {}
