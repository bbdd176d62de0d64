// Copyright 2024 Fortio Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package run // import "speedruntimer/run"

import (
	"sort"

	"speedruntimer/timespan"
)

// HistoryEntry pairs an attempt index with the Time recorded for a segment
// at that attempt. Positive indices are real attempts (1-based); indices
// <= 0 are synthetic, seeded by PB import or best-segment import.
type HistoryEntry struct {
	Index int32
	Time  timespan.Time
}

// SegmentHistory is an ordered mapping from attempt index to Time, kept as
// a slice sorted by Index// acceptable"). Keys are unique per segment.
type SegmentHistory struct {
	entries []HistoryEntry
}

// Len returns the number of entries.
func (h *SegmentHistory) Len() int {
	return len(h.entries)
}

// All returns the entries in increasing index order. The caller must not
// mutate the returned slice.
func (h *SegmentHistory) All() []HistoryEntry {
	return h.entries
}

func (h *SegmentHistory) find(index int32) int {
	return sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].Index >= index
	})
}

// Get returns the Time recorded at the given attempt index, if any.
func (h *SegmentHistory) Get(index int32) (timespan.Time, bool) {
	i := h.find(index)
	if i < len(h.entries) && h.entries[i].Index == index {
		return h.entries[i].Time, true
	}
	return timespan.Empty, false
}

// Insert writes (or overwrites) the Time recorded at the given attempt
// index, keeping entries sorted by index.
func (h *SegmentHistory) Insert(index int32, t timespan.Time) {
	i := h.find(index)
	if i < len(h.entries) && h.entries[i].Index == index {
		h.entries[i].Time = t
		return
	}
	h.entries = append(h.entries, HistoryEntry{})
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = HistoryEntry{Index: index, Time: t}
}

// Remove deletes the entry at the given attempt index, if present.
func (h *SegmentHistory) Remove(index int32) {
	i := h.find(index)
	if i < len(h.entries) && h.entries[i].Index == index {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
}

// MinNegativeIndex returns the smallest (most negative) synthetic index
// currently present, or 0 if there are none, used to pick a fresh low
// index for the next imported entry.
func (h *SegmentHistory) MinNegativeIndex() int32 {
	var min int32
	for _, e := range h.entries {
		if e.Index <= 0 && e.Index < min {
			min = e.Index
		}
	}
	return min
}
