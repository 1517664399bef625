package errors

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackDepth = 32

type stack []uintptr

// callers skips runtime.Callers, callers itself and its direct caller.
func callers() stack {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

// fullStack renders one "function file:line" entry per frame.
func (s stack) fullStack() []string {
	frames := runtime.CallersFrames(s)
	lines := make([]string, 0, len(s))
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			lines = append(lines, fmt.Sprintf("%s %s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return lines
}

// reportOrigin picks the frame that raised the error, used as the rate limiter key.
func reportOrigin(lines []string) string {
	if len(lines) > 2 {
		return lines[2]
	}
	if len(lines) > 0 {
		return lines[len(lines)-1]
	}
	return ""
}
