package cache

// debug.go provides a debug-only object dump ("isprint for debug
// formatting only"): a hexdump-style rendering of an
// object body's raw bytes, printable runs shown literally and everything
// else as a dot, exactly the way kernel debuggers render memory. Never
// called from the hot path; intended for use inside a reclaim callback
// or a panic handler investigating corruption.

import (
	"fmt"
	"strings"
	"unicode"
	"unsafe"

	"github.com/Voskan/slabcache/internal/unsafehelpers"
)

// DumpBody renders body's raw bytes as a hexdump: 16 bytes per line, hex
// on the left, printable ASCII (via unicode.IsPrint) on the right.
func DumpBody[T any](body *T) string {
	var zero T
	size := unsafe.Sizeof(zero)
	b := unsafehelpers.ByteSliceFrom(unsafe.Pointer(body), size)

	var sb strings.Builder
	for off := 0; off < len(b); off += 16 {
		end := off + 16
		if end > len(b) {
			end = len(b)
		}
		line := b[off:end]

		fmt.Fprintf(&sb, "%08x  ", off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(" |")
		for _, c := range line {
			if unicode.IsPrint(rune(c)) && c < unicode.MaxASCII {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
