// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"terramap/mapper/builder"
)

// Debug prints debugging info to console.
func (h *Hub) Debug() {
	fmt.Printf("Debug [%v] %s\n", time.Now().Format(time.UnixDate), h.cloud)

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	fmt.Printf(" - memstats: %dM/%dM\n", stats.HeapInuse/1e6, stats.NextGC/1e6)

	fmt.Printf(" - clients: %d, local cycles: %d, global cycles: %d, chunks: %d\n",
		h.clients.Len,
		atomic.LoadInt64(&h.localCycles),
		atomic.LoadInt64(&h.globalCycles),
		atomic.LoadInt64(&h.chunksSeen))

	h.globMu.Lock()
	bounds := h.global.CoveredBounds()
	resizes := h.global.Resizes()
	h.globMu.Unlock()
	fmt.Printf(" - global: %.1fx%.1fm, resizes: %d\n", bounds.Width(), bounds.Height(), resizes)

	fmt.Print(" - demand:")
	for p := builder.Product(0); p < builder.ProductCount; p++ {
		if n := h.demand.Count(p); n > 0 {
			fmt.Printf(" %s=%d", p, n)
		}
	}
	fmt.Println()
}
