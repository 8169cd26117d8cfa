package slots

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func variants(t *testing.T) []Variant {
	t.Helper()
	if RaceEnabled {
		return []Variant{Atomic}
	}
	return []Variant{Atomic, Plain}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Variant
	}{
		{"", Atomic},
		{"atomic", Atomic},
		{" ATOMIC ", Atomic},
		{"plain", Plain},
		{"non-atomic", Plain},
	}
	for _, tc := range tests {
		got, err := ParseVariant(tc.input)
		if err != nil {
			t.Fatalf("ParseVariant(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}

	if _, err := ParseVariant("relaxed"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("ParseVariant(relaxed) err = %v, want ErrUnknownVariant", err)
	}
}

func TestVariantFor(t *testing.T) {
	t.Parallel()
	if VariantFor(true) != Atomic || VariantFor(false) != Plain {
		t.Fatal("VariantFor mapping is wrong")
	}
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	t.Parallel()
	if _, err := New(Variant(9), make([]uint32, 1)); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("err = %v, want ErrUnknownVariant", err)
	}
}

func TestPublishThenLoad(t *testing.T) {
	t.Parallel()
	for _, v := range variants(t) {
		words := make([]uint32, 3)
		arr, err := New(v, words)
		if err != nil {
			t.Fatalf("%v: New: %v", v, err)
		}
		if arr.Len() != 3 {
			t.Fatalf("%v: Len() = %d, want 3", v, arr.Len())
		}
		arr.Publish(1, Partial, 0)
		if got := arr.Load(1); got != Pack(Partial, 0) {
			t.Fatalf("%v: Load(1) = %v, want partial:0", v, got)
		}
		arr.Publish(1, Final, 9)
		for range 3 {
			if got := arr.Load(1); got != Pack(Final, 9) {
				t.Fatalf("%v: Load(1) = %v, want final:9", v, got)
			}
		}
		if words[1] != uint32(Pack(Final, 9)) {
			t.Fatalf("%v: backing word = %#x", v, words[1])
		}
		if arr.Load(0).IsSet() || arr.Load(2).IsSet() {
			t.Fatalf("%v: untouched slots must stay unset", v)
		}
	}
}

func TestPollWaitsForWriter(t *testing.T) {
	t.Parallel()
	for _, v := range variants(t) {
		arr, err := New(v, make([]uint32, 2))
		if err != nil {
			t.Fatalf("%v: New: %v", v, err)
		}

		var wg sync.WaitGroup
		got := make(chan Word, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- arr.Poll(0)
		}()

		select {
		case w := <-got:
			t.Fatalf("%v: Poll returned %v before any write", v, w)
		case <-time.After(10 * time.Millisecond):
		}

		arr.Publish(0, Partial, 0)
		wg.Wait()
		if w := <-got; w != Pack(Partial, 0) {
			t.Fatalf("%v: Poll = %v, want partial:0", v, w)
		}
	}
}
