// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"terramap/mapper/engine"
)

// forEachChunk fans chunk rasterization out over the CPUs. Cell writes
// target distinct raster indices per chunk, so only the marker lists need
// their own locking.
func forEachChunk(chunks []engine.Chunk, fn func(engine.Chunk)) {
	cpus := runtime.NumCPU()
	if cpus <= 1 || len(chunks) < 2 {
		for _, c := range chunks {
			fn(c)
		}
		return
	}

	input := make(chan engine.Chunk, cpus*2)
	var wait sync.WaitGroup
	wait.Add(cpus)

	for i := 0; i < cpus; i++ {
		go func() {
			for c := range input {
				fn(c)
			}
			wait.Done()
		}()
	}

	for _, c := range chunks {
		input <- c
	}
	close(input)
	wait.Wait()
}

func storeFloat32(addr *uint32, val float32) {
	atomic.StoreUint32(addr, math.Float32bits(val))
}

func loadFloat32(addr *uint32) float32 {
	return math.Float32frombits(atomic.LoadUint32(addr))
}
