package device

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Properties describes the host the simulated device runs on.
type Properties struct {
	Name          string `json:"name" yaml:"name"`
	Arch          string `json:"arch" yaml:"arch"`
	ComputeUnits  int    `json:"compute_units" yaml:"compute_units"`
	CacheLineSize int    `json:"cache_line_size" yaml:"cache_line_size"`
	// NativeAtomics reports single-instruction atomic read-modify-write
	// support (LSE on arm64).
	NativeAtomics bool `json:"native_atomics" yaml:"native_atomics"`
	// IndivisibleWords reports whether aligned 32-bit plain loads and stores
	// cannot tear. The plain slot variant depends on it.
	IndivisibleWords bool     `json:"indivisible_words" yaml:"indivisible_words"`
	Dispatch         string   `json:"dispatch" yaml:"dispatch"`
	Features         []string `json:"features,omitempty" yaml:"features,omitempty"`
}

func (d *Device) Properties() Properties {
	p := Properties{
		Name:          "goroutine-sim",
		Arch:          runtime.GOARCH,
		ComputeUnits:  runtime.GOMAXPROCS(0),
		CacheLineSize: int(unsafe.Sizeof(cpu.CacheLinePad{})),
		Dispatch:      d.opts.Dispatch.Mode.String(),
	}
	if d.opts.Dispatch.Mode == Pooled {
		p.ComputeUnits = d.opts.Dispatch.units()
	}

	switch runtime.GOARCH {
	case "amd64", "386":
		p.NativeAtomics = true
		p.IndivisibleWords = true
		if cpu.X86.HasAVX2 {
			p.Features = append(p.Features, "avx2")
		}
		if cpu.X86.HasAVX512F {
			p.Features = append(p.Features, "avx512f")
		}
	case "arm64":
		p.NativeAtomics = cpu.ARM64.HasATOMICS
		p.IndivisibleWords = true
		if cpu.ARM64.HasATOMICS {
			p.Features = append(p.Features, "lse")
		}
		if cpu.ARM64.HasASIMD {
			p.Features = append(p.Features, "asimd")
		}
	case "arm", "riscv64", "ppc64", "ppc64le", "s390x", "loong64":
		p.IndivisibleWords = true
	}
	return p
}
