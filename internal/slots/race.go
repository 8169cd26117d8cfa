//go:build race

package slots

// RaceEnabled reports whether the binary was built with -race. The plain
// variant is a deliberate race and is reported by the detector.
const RaceEnabled = true
