// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package builder

import (
	"fmt"
	"sync"
	"time"

	"terramap/mapper/engine"
)

const defaultBackoff = 10 * time.Millisecond

// SyncGate serializes snapshot handoff between the asynchronous engine and
// the two periodic builders. A consumer never observes a half-computed
// snapshot, and the next computation is requested while the previous one is
// being consumed so the other regime's cycle finds the pipeline warm.
type SyncGate struct {
	mu      sync.Mutex
	eng     engine.Engine
	Backoff time.Duration
}

func NewSyncGate(eng engine.Engine) *SyncGate {
	return &SyncGate{eng: eng, Backoff: defaultBackoff}
}

// Acquire blocks the calling cycle until a snapshot is ready, retrieves it,
// and immediately requests the next computation. On retrieval failure the
// lock is released and the cycle is expected to skip to its next period.
func (g *SyncGate) Acquire() (engine.Snapshot, error) {
	for {
		g.mu.Lock()
		if err := g.eng.Status(); err != nil {
			// Not ready; the request is ignored if a computation is
			// already in progress.
			g.eng.Request()
			g.mu.Unlock()
			time.Sleep(g.Backoff)
			continue
		}

		snap, err := g.eng.Retrieve()
		if err != nil {
			g.mu.Unlock()
			return nil, fmt.Errorf("snapshot retrieval: %w", err)
		}

		// Keep the pipeline warm for the other consumer.
		g.eng.Request()
		g.mu.Unlock()
		return snap, nil
	}
}
