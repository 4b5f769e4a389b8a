// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"terramap/mapper/archive"
	"terramap/mapper/builder"
	"terramap/mapper/cloud"
	"terramap/mapper/cloud/db"
	"terramap/mapper/config"
	"terramap/mapper/engine"
	"terramap/mapper/imagery"
	"terramap/mapper/raster"
	"terramap/mapper/transform"
)

const (
	debugPeriod  = time.Second * 5
	warnInterval = time.Second * 5
)

// broadcastMsg fans one product payload out to its subscribers.
type broadcastMsg struct {
	product builder.Product
	out     outbound
}

// Hub maintains the set of active clients and runs the two mapping cycles.
// The hub goroutine owns the client registry; the cycle goroutines own the
// builders behind the regime locks.
type Hub struct {
	cfg config.Config

	eng    engine.Engine
	pose   transform.Source
	gate   *builder.SyncGate
	demand *builder.Demand
	local  *builder.LocalBuilder
	global *builder.GlobalBuilder

	clients ClientList

	// Cloud (and things that are served atomically by HTTP)
	cloud      *cloud.Cloud
	archive    *archive.Writer
	statusJSON atomic.Value

	// Regime locks, held across build + payload capture, and by query
	// handlers while reading the caches. Never held together with the
	// SyncGate's lock.
	locMu     sync.Mutex
	lastLocal map[builder.Product]outbound

	globMu     sync.Mutex
	lastGlobal map[builder.Product]outbound

	enabled int32

	// Cycle totals, written by cycle goroutines, read via atomics.
	localCycles  int64
	globalCycles int64
	chunksSeen   int64

	warnEnable    throttle
	warnSnapshot  throttle
	warnTransform throttle
	warnCycle     throttle

	// Inbound channels
	inbound    chan SignedInbound
	register   chan Client
	unregister chan Client
	broadcast  chan broadcastMsg
}

func newHub(cfg config.Config, eng engine.Engine, pose transform.Source, c *cloud.Cloud) *Hub {
	resolution := engine.ResolutionOf(cfg.ResolutionIndex)
	localPeriod := rateToPeriod(cfg.LocalRate)

	h := &Hub{
		cfg:        cfg,
		eng:        eng,
		pose:       pose,
		gate:       builder.NewSyncGate(eng),
		local:      builder.NewLocalBuilder(resolution, cfg.MaxHeight, cfg.ZResolution, cfg.LocalRadius, localPeriod),
		global:     builder.NewGlobalBuilder(resolution, cfg.MaxHeight, cfg.ZResolution),
		cloud:      c,
		lastLocal:  make(map[builder.Product]outbound),
		lastGlobal: make(map[builder.Product]outbound),

		warnEnable:    throttle{interval: warnInterval},
		warnSnapshot:  throttle{interval: warnInterval},
		warnTransform: throttle{interval: warnInterval},
		warnCycle:     throttle{interval: warnInterval},

		inbound:    make(chan SignedInbound, 16),
		register:   make(chan Client, 8),
		unregister: make(chan Client, 16),
		broadcast:  make(chan broadcastMsg, builder.ProductCount*2),
	}
	h.demand = builder.NewDemand(h.global.ForceFull)

	if cfg.ArchiveDir != "" {
		h.archive = archive.NewWriter(cfg.ArchiveDir, "global")
	}
	return h
}

func rateToPeriod(rate float32) time.Duration {
	return time.Duration(float64(time.Second) / float64(rate))
}

func (h *Hub) run() {
	cloudTicker := time.NewTicker(cloud.UpdatePeriod)
	debugTicker := time.NewTicker(debugPeriod)

	go h.runLocal()
	go h.runGlobal()

	h.Cloud()

	for {
		select {
		case client := <-h.register:
			h.clients.Add(client)
			client.Data().Hub = h
			client.Init()
		case client := <-h.unregister:
			client.Close()
			cd := client.Data()

			// Drop the client's demand so products nobody consumes stop
			// costing cycles.
			for p := builder.Product(0); p < builder.ProductCount; p++ {
				if cd.Subs[p] {
					cd.Subs[p] = false
					h.demand.Unsubscribe(p)
				}
			}

			cd.Hub = nil
			h.clients.Remove(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				// If not same hub the message is old
				data := in.Client.Data()
				if h == data.Hub {
					in.Process(h, in.Client)
				}

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case msg := <-h.broadcast:
			for client := h.clients.First; client != nil; client = client.Data().Next {
				if client.Data().Subs[msg.product] {
					client.Send(msg.out)
				}
			}
		case <-cloudTicker.C:
			h.Cloud()
		case <-debugTicker.C:
			h.Debug()
		}
	}
}

// ensureEnabled turns terrain reconstruction on, retrying every cycle until
// it sticks. The mapper serves nothing until the engine comes up.
func (h *Hub) ensureEnabled() bool {
	if atomic.LoadInt32(&h.enabled) == 1 {
		return true
	}

	err := h.eng.Enable(engine.Params{
		AgentStep:      h.cfg.Agent.Step,
		AgentSlope:     h.cfg.Agent.Slope,
		AgentRadius:    h.cfg.Agent.Radius,
		AgentHeight:    h.cfg.Agent.Height,
		AgentRoughness: h.cfg.Agent.Roughness,
		MaxDepth:       h.cfg.MaxDepth,
		MaxHeight:      h.cfg.MaxHeight,
		ZResolution:    h.cfg.ZResolution,
		Resolution:     engine.ResolutionOf(h.cfg.ResolutionIndex),
	})
	if err != nil {
		h.warnEnable.printf("terrain mapping disabled: %v", err)
		return false
	}

	log.Println("terrain mapping enabled")
	atomic.StoreInt32(&h.enabled, 1)
	return true
}

func (h *Hub) runLocal() {
	ticker := time.NewTicker(rateToPeriod(h.cfg.LocalRate))
	for range ticker.C {
		h.localCycle()
	}
}

func (h *Hub) localCycle() {
	counts := h.demand.Sample()
	if !counts.AnyLocal() {
		return
	}
	if !h.ensureEnabled() {
		return
	}

	snap, err := h.gate.Acquire()
	if err != nil {
		h.warnSnapshot.printf("local cycle: %v", err)
		return
	}

	pose, err := h.pose.CameraPose()
	if err != nil {
		h.warnTransform.printf("camera pose: %v", err)
		return
	}

	stamp := time.Now()

	h.locMu.Lock()
	products, err := h.local.Build(snap, pose.X, pose.Y, counts, stamp)
	var outs []broadcastMsg
	if err == nil {
		outs = h.captureLocal(products)
	}
	h.locMu.Unlock()

	if err != nil {
		if err != builder.ErrNoChunks {
			h.warnCycle.printf("local build: %v", err)
		}
		return
	}

	atomic.AddInt64(&h.localCycles, 1)
	atomic.AddInt64(&h.chunksSeen, int64(products.Chunks))

	for _, msg := range outs {
		h.broadcast <- msg
	}
}

// captureLocal clones the demanded products into payloads and caches them
// for the query handlers. Caller holds locMu.
func (h *Hub) captureLocal(products builder.LocalProducts) []broadcastMsg {
	outs := make([]broadcastMsg, 0, 5)
	add := func(p builder.Product, out outbound) {
		h.lastLocal[p] = out
		outs = append(outs, broadcastMsg{product: p, out: out})
	}

	if products.Height != nil {
		add(builder.LocalHeight, newGridPayload(builder.LocalHeight, products.Height))
	}
	if products.Cost != nil {
		add(builder.LocalCost, newGridPayload(builder.LocalCost, products.Cost))
	}
	if products.Cloud != nil {
		add(builder.LocalCloud, newCloudPayload(builder.LocalCloud, products.Cloud))
	}
	if products.Cubes != nil {
		add(builder.LocalCubes, newCubesPayload(builder.LocalCubes, products.Cubes))
	}
	if products.Boxes != nil {
		add(builder.LocalBoxes, newBoxesPayload(builder.LocalBoxes, products.Boxes))
	}
	return outs
}

func (h *Hub) runGlobal() {
	ticker := time.NewTicker(rateToPeriod(h.cfg.GlobalRate))
	for range ticker.C {
		h.globalCycle()
	}
}

type imageUpload struct {
	name string
	data []byte
}

// archiveEntry is one global publish in the on-disk archive: the cycle
// metadata plus the grid payloads published that cycle.
type archiveEntry struct {
	Stamp   int64         `json:"stamp"`
	Full    bool          `json:"full"`
	Chunks  int           `json:"chunks"`
	Resizes int           `json:"resizes"`
	Bounds  raster.Bounds `json:"bounds"`
	Height  *GridPayload  `json:"height,omitempty"`
	Cost    *GridPayload  `json:"cost,omitempty"`
}

func (h *Hub) globalCycle() {
	if !h.demand.Sample().AnyGlobal() {
		return
	}
	if !h.ensureEnabled() {
		return
	}

	snap, err := h.gate.Acquire()
	if err != nil {
		h.warnSnapshot.printf("global cycle: %v", err)
		return
	}

	stamp := time.Now()

	h.globMu.Lock()
	products, err := h.global.Build(snap, h.demand, stamp)
	var outs []broadcastMsg
	var uploads []imageUpload
	if err == nil {
		outs, uploads = h.captureGlobal(products, stamp)
	}
	bounds := h.global.CoveredBounds()
	resizes := h.global.Resizes()
	h.globMu.Unlock()

	if err != nil {
		if err != builder.ErrNoChunks {
			h.warnCycle.printf("global build: %v", err)
		}
		return
	}

	atomic.AddInt64(&h.globalCycles, 1)
	atomic.AddInt64(&h.chunksSeen, int64(products.Chunks))

	for _, msg := range outs {
		h.broadcast <- msg
	}

	if h.archive != nil {
		entry := archiveEntry{
			Stamp:   unixMillis(stamp),
			Full:    products.Full,
			Chunks:  products.Chunks,
			Resizes: resizes,
			Bounds:  bounds,
		}
		// Payloads are immutable once captured, so the archive can hold
		// the same data that was broadcast.
		for _, msg := range outs {
			if g, ok := msg.out.(GridPayload); ok {
				switch msg.product {
				case builder.GlobalHeight:
					entry.Height = &g
				case builder.GlobalCost:
					entry.Cost = &g
				}
			}
		}
		if err := h.archive.Write(entry); err != nil {
			h.warnCycle.printf("archive: %v", err)
		}
	}

	if h.cloud != nil && len(uploads) > 0 {
		go func() {
			for _, up := range uploads {
				if err := h.cloud.UploadMapImage(up.name, up.data); err != nil {
					fmt.Println("Error uploading map image:", err)
				}
			}
		}()
	}

	if h.cfg.StatsLog != "" {
		_ = AppendLog(h.cfg.StatsLog, []interface{}{
			unixMillis(stamp),
			products.Chunks,
			products.Full,
			resizes,
			bounds.Width() * bounds.Height(),
		})
	}
}

// captureGlobal clones the demanded products into payloads, renders the
// demanded images, and caches everything for latched delivery and queries.
// Caller holds globMu.
func (h *Hub) captureGlobal(products builder.GlobalProducts, stamp time.Time) ([]broadcastMsg, []imageUpload) {
	counts := products.Counts
	outs := make([]broadcastMsg, 0, 7)
	var uploads []imageUpload
	add := func(p builder.Product, out outbound) {
		h.lastGlobal[p] = out
		outs = append(outs, broadcastMsg{product: p, out: out})
	}
	addImage := func(p builder.Product, name string, png []byte) {
		add(p, newImagePayload(p, stamp, png))
		uploads = append(uploads, imageUpload{name: name, data: png})
	}

	if counts.Want(builder.GlobalHeight) && products.Height != nil {
		add(builder.GlobalHeight, newGridPayload(builder.GlobalHeight, products.Height))
	}
	if counts.Want(builder.GlobalCost) && products.Cost != nil {
		add(builder.GlobalCost, newGridPayload(builder.GlobalCost, products.Cost))
	}
	if counts.Want(builder.GlobalCloud) && products.Cloud != nil {
		add(builder.GlobalCloud, newCloudPayload(builder.GlobalCloud, products.Cloud))
	}
	if counts.Want(builder.GlobalCubes) && products.Cubes != nil {
		add(builder.GlobalCubes, newCubesPayload(builder.GlobalCubes, products.Cubes))
	}

	if counts.Want(builder.GlobalHeightImage) && products.Height != nil {
		if png, err := imagery.EncodePNG(imagery.RenderGrid(products.Height)); err == nil {
			addImage(builder.GlobalHeightImage, "height_map", png)
		}
	}
	if counts.Want(builder.GlobalColorImage) && products.Cloud != nil {
		if png, err := imagery.EncodePNG(imagery.RenderCloud(products.Cloud)); err == nil {
			addImage(builder.GlobalColorImage, "color_map", png)
		}
	}
	if counts.Want(builder.GlobalCostImage) && products.Cost != nil {
		if png, err := imagery.EncodePNG(imagery.RenderGrid(products.Cost)); err == nil {
			addImage(builder.GlobalCostImage, "travers_map", png)
		}
	}

	return outs, uploads
}

// latchedGlobal returns the last published payload of a global product, or
// nil before the first publish.
func (h *Hub) latchedGlobal(p builder.Product) outbound {
	h.globMu.Lock()
	defer h.globMu.Unlock()
	return h.lastGlobal[p]
}

// Cloud refreshes the HTTP status document and pushes the session record.
func (h *Hub) Cloud() {
	h.globMu.Lock()
	bounds := h.global.CoveredBounds()
	resizes := h.global.Resizes()
	h.globMu.Unlock()

	localCycles := atomic.LoadInt64(&h.localCycles)
	globalCycles := atomic.LoadInt64(&h.globalCycles)
	chunks := atomic.LoadInt64(&h.chunksSeen)
	coverage := bounds.Width() * bounds.Height()

	statusJSON, err := json.Marshal(struct {
		Clients      int     `json:"clients"`
		Enabled      bool    `json:"enabled"`
		LocalCycles  int64   `json:"localCycles"`
		GlobalCycles int64   `json:"globalCycles"`
		CoverageM2   float32 `json:"coverage"`
	}{
		Clients:      h.clients.Len,
		Enabled:      atomic.LoadInt32(&h.enabled) == 1,
		LocalCycles:  localCycles,
		GlobalCycles: globalCycles,
		CoverageM2:   coverage,
	})

	if err == nil {
		h.statusJSON.Store(statusJSON)
	} else {
		fmt.Println("error marshaling status:", err)
	}

	session := db.Session{
		Cycles:     int(localCycles + globalCycles),
		Chunks:     chunks,
		Resizes:    resizes,
		CoverageM2: coverage,
	}

	go func() {
		if err := h.cloud.UpdateSession(session); err != nil {
			fmt.Println("Error updating session:", err)
		}
	}()
}
