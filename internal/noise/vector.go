package noise

import (
	"errors"
	"runtime"

	"golang.org/x/sys/cpu"
)

// ErrNoWideVectors means the CPU lacks the vector units the batched
// turbulence path is tuned for.
var ErrNoWideVectors = errors.New("noise: wide vector support unavailable")

// maxLanes bounds the lockstep batch width.
const maxLanes = 8

// DetectLanes picks the batch width for this CPU.
func DetectLanes() int {
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasAVX2 {
			return 8
		}
		if cpu.X86.HasSSE41 {
			return 4
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 4
		}
	}
	return 1
}

// CheckVectorSupport returns ErrNoWideVectors when only the scalar path is
// available.
func CheckVectorSupport() error {
	if DetectLanes() < 4 {
		return ErrNoWideVectors
	}
	return nil
}
