// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log"

	"terramap/mapper/builder"
)

// Make sure to register in init function
type (
	// Subscribe opts the client into one product topic. Subscribing to a
	// global topic immediately delivers the last published payload.
	Subscribe struct {
		Topic string `json:"topic"`
	}

	// Unsubscribe opts the client out of one product topic.
	Unsubscribe struct {
		Topic string `json:"topic"`
	}

	// Reconfigure changes the local window radius at runtime.
	Reconfigure struct {
		LocalRadius float32 `json:"localRadius"`
	}

	// InvalidInbound means invalid message type from client (possibly out of date).
	// NOTE: Do not register, otherwise client could send type "invalidInbound"
	InvalidInbound struct {
		messageType messageType
	}
)

func init() {
	registerInbound(
		Subscribe{},
		Unsubscribe{},
		Reconfigure{},
	)
}

func (data Subscribe) Process(h *Hub, client Client) {
	p, ok := builder.ProductByName(data.Topic)
	if !ok {
		log.Println("subscribe to unknown topic:", data.Topic)
		return
	}

	cd := client.Data()
	if cd.Subs[p] {
		return // already subscribed
	}
	cd.Subs[p] = true
	h.demand.Subscribe(p)

	// Global topics are latched: a late joiner gets the standing map
	// right away instead of waiting for the next publish.
	if p.Global() {
		if out := h.latchedGlobal(p); out != nil {
			client.Send(out)
		}
	}
}

func (data Unsubscribe) Process(h *Hub, client Client) {
	p, ok := builder.ProductByName(data.Topic)
	if !ok {
		return
	}

	cd := client.Data()
	if !cd.Subs[p] {
		return
	}
	cd.Subs[p] = false
	h.demand.Unsubscribe(p)
}

func (data Reconfigure) Process(h *Hub, _ Client) {
	if data.LocalRadius <= 0 {
		return
	}
	h.local.SetRadius(data.LocalRadius)
	log.Printf("local radius reconfigured to %.2fm", data.LocalRadius)
}

func (data InvalidInbound) Process(_ *Hub, _ Client) {}
