package strand

import (
	"github.com/wippyai/strand/internal/safepoint"
)

// SetCheckpoint installs the cooperative yield hook polled by decode-based
// slow-path loops (broken-content scans, decode-based search). The hook runs
// once every few thousand decoded codepoints, bounding scan latency on
// adversarial input. The default hook yields the processor; nil disables
// polling.
func SetCheckpoint(f func()) {
	safepoint.SetHook(f)
}
