// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

// Session is one mapping session's running totals, updated periodically
// while the mapper is online.
type Session struct {
	ID         string  `dynamo:"id"`
	Started    int64   `dynamo:"started"` // unix millis
	Updated    int64   `dynamo:"updated"` // unix millis
	Cycles     int     `dynamo:"cycles"`
	Chunks     int64   `dynamo:"chunks"`
	Resizes    int     `dynamo:"resizes"`
	CoverageM2 float32 `dynamo:"coverage"`
	TTL        int64   `dynamo:"ttl,omitempty"`
}
