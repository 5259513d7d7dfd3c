//go:build tinygo

// Command regex is a test plugin that reads "RESP <key> <rt>" messages with
// the host regex functions.
package main

import (
	"encoding/json"
	"strconv"
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

//go:wasm-module env
//export regex_find_submatch
func regexFindSubmatch(strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32

//go:wasm-module env
//export log
func hostLog(level, ptr, n uint32)

const respPattern = `RESP (\w+) (\d+)`

type variable struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

//export parse_extra_line
func parseExtraLine(ptr, n uint32) uint64 {
	var in struct {
		Line string `json:"line"`
	}
	if err := json.Unmarshal(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n), &in); err != nil {
		return send(map[string]any{"ok": false, "error": "bad input"})
	}

	var buf [1024]byte
	got := regexFindSubmatch(
		addr(in.Line), uint32(len(in.Line)),
		addr(respPattern), uint32(len(respPattern)),
		uint32(uintptr(unsafe.Pointer(&buf[0]))), uint32(len(buf)),
	)
	if got == 0 || got == 0xFFFFFFFF {
		return send(map[string]any{"ok": true, "vars": []variable{}})
	}

	var m []string
	if err := json.Unmarshal(buf[:got], &m); err != nil || len(m) != 3 {
		return send(map[string]any{"ok": false, "error": "bad submatch"})
	}
	rt, _ := strconv.Atoi(m[2])

	msg := "response " + m[1]
	hostLog(0, addr(msg), uint32(len(msg)))

	return send(map[string]any{
		"ok":   true,
		"vars": []variable{{Name: "response", Value: m[1]}, {Name: "rt", Value: rt}},
	})
}

func addr(s string) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s))))
}

func send(v any) uint64 {
	b, _ := json.Marshal(v)
	p := alloc(uint32(len(b)))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), len(b)), b)
	return uint64(len(b))<<32 | uint64(p)
}

func main() {}
