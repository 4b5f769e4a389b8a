package main

import (
	"log"
	"net/http"

	"terramap/mapper/builder"
)

func (h *Hub) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	buf, ok := h.statusJSON.Load().([]byte)
	if ok {
		_, _ = w.Write(buf)
	}
}

func (h *Hub) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error", err)
		return
	}

	h.register <- NewSocketClient(conn)
}

// ServeStaticMap serves the configured default global map.
func (h *Hub) ServeStaticMap(w http.ResponseWriter, r *http.Request) {
	p := builder.GlobalHeight
	if h.cfg.DefaultMap == "cost" {
		p = builder.GlobalCost
	}
	h.serveGlobal(w, p)
}

func (h *Hub) ServeLocalHeightMap(w http.ResponseWriter, r *http.Request) {
	h.serveLocal(w, builder.LocalHeight)
}

func (h *Hub) ServeLocalCostMap(w http.ResponseWriter, r *http.Request) {
	h.serveLocal(w, builder.LocalCost)
}

func (h *Hub) ServeGlobalHeightMap(w http.ResponseWriter, r *http.Request) {
	h.serveGlobal(w, builder.GlobalHeight)
}

func (h *Hub) ServeGlobalCostMap(w http.ResponseWriter, r *http.Request) {
	h.serveGlobal(w, builder.GlobalCost)
}

func (h *Hub) serveLocal(w http.ResponseWriter, p builder.Product) {
	h.locMu.Lock()
	out := h.lastLocal[p]
	h.locMu.Unlock()
	writePayload(w, out)
}

func (h *Hub) serveGlobal(w http.ResponseWriter, p builder.Product) {
	h.globMu.Lock()
	out := h.lastGlobal[p]
	h.globMu.Unlock()
	writePayload(w, out)
}

// Queries serve the last published payload; before the first publish there
// is nothing to serve and the request fails.
func writePayload(w http.ResponseWriter, out outbound) {
	if out == nil {
		http.Error(w, "map not yet published", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	buf, err := json.Marshal(out)
	if err != nil {
		http.Error(w, "encode failure", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf)
}
