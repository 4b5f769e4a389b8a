// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"

	"golang.org/x/net/netutil"

	"terramap/mapper/cloud"
	"terramap/mapper/config"
	"terramap/mapper/engine/sim"
	"terramap/mapper/transform"
)

func main() {
	var (
		configPath     string
		port           int
		maxConnections int
		localRadius    float64
		stage          string
		region         string
		seed           int64
	)

	flag.StringVar(&configPath, "config", "", "path to mapper.yaml")
	flag.IntVar(&port, "port", 0, "http service port (overrides config)")
	flag.IntVar(&maxConnections, "max-connections", 0, "maximum number of inbound TCP connections (overrides config)")
	flag.Float64Var(&localRadius, "local-radius", 0, "local window radius in meters (overrides config)")
	flag.StringVar(&stage, "stage", "", "cloud stage (overrides config; empty runs offline)")
	flag.StringVar(&region, "region", "us-east-1", "cloud region")
	flag.Int64Var(&seed, "seed", 42, "terrain seed")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config: ", err)
	}

	// Flags overlay the file.
	if port > 0 {
		cfg.Port = port
	}
	if maxConnections > 0 {
		cfg.MaxConnections = maxConnections
	}
	if localRadius > 0 {
		cfg.LocalRadius = float32(localRadius)
	}
	if stage != "" {
		cfg.CloudStage = stage
	}

	var c *cloud.Cloud
	if cfg.CloudStage != "" {
		c, err = cloud.New(region, cfg.CloudStage)
		if err != nil {
			// Cloud is not required for the mapper to function.
			log.Printf("Cloud error: %v\n", err)
		}
	}
	fmt.Println(c)

	eng := sim.New(seed)
	hub := newHub(cfg, eng, transform.SourceFunc(func() (transform.Pose, error) {
		x, y := eng.Pose()
		return transform.Pose{X: x, Y: y}, nil
	}), c)

	go hub.run()

	log.Println("terramap server started")

	http.HandleFunc("/", hub.ServeIndex)
	http.HandleFunc("/ws", hub.ServeSocket)
	http.HandleFunc("/static_map", hub.ServeStaticMap)
	http.HandleFunc("/local_height_map", hub.ServeLocalHeightMap)
	http.HandleFunc("/local_cost_map", hub.ServeLocalCostMap)
	http.HandleFunc("/global_height_map", hub.ServeGlobalHeightMap)
	http.HandleFunc("/global_cost_map", hub.ServeGlobalCostMap)

	l, err := net.Listen("tcp", fmt.Sprint(":", cfg.Port))
	if err != nil {
		log.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	l = netutil.LimitListener(l, cfg.MaxConnections)

	log.Fatal("ListenAndServe: ", http.Serve(l, nil))
}
