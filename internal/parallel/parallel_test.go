// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package parallel

import "testing"

func TestForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 10_000
	seen := make([]int32, n)

	For(n, func(i int) {
		seen[i]++
	})

	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestForMatchesSerialResult(t *testing.T) {
	const n = 5000
	serial := make([]int, n)
	for i := range serial {
		serial[i] = i * i
	}

	parallelResult := make([]int, n)
	For(n, func(i int) {
		parallelResult[i] = i * i
	})

	for i := range serial {
		if serial[i] != parallelResult[i] {
			t.Fatalf("index %d: serial=%d parallel=%d", i, serial[i], parallelResult[i])
		}
	}
}

func TestForZeroLength(t *testing.T) {
	For(0, func(i int) { t.Fatalf("fn called for n=0") })
}
