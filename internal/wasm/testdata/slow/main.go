//go:build tinygo

// Command slow is a test plugin that never returns.
package main

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

//export parse_extra_line
func parseExtraLine(ptr, n uint32) uint64 {
	for {
	}
}

func main() {}
