//go:build !race

package slots

// RaceEnabled reports whether the binary was built with -race.
const RaceEnabled = false
