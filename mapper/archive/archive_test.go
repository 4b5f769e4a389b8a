// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

type entry struct {
	Cycle  int    `json:"cycle"`
	Reason string `json:"reason"`
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "global")

	if err := w.Write(entry{Cycle: 1, Reason: "full"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(entry{Cycle: 2, Reason: "incremental"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "global-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("archive files: %v, %v", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	scanner := bufio.NewScanner(dec)
	var got []entry
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatal(err)
		}
		got = append(got, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0].Cycle != 1 || got[1].Reason != "incremental" {
		t.Errorf("entries: %+v", got)
	}
}

func TestWriterCloseIdempotent(t *testing.T) {
	w := NewWriter(t.TempDir(), "global")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
