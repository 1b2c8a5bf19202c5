package renderer

import (
	"strings"
)

// conditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func conditionalBlock(w *outputRenderer, block func(*strings.Builder) bool) {
	b := &strings.Builder{}
	if block(b) {
		w.WriteString(b.String())
	}
}
