// Package clone wraps github.com/huandu/go-clone/generic for producing
// replacement values of data-model records that own nested slices (a
// MidiClip's note list, an AudioTrack's clip list), so editors don't need
// hand-rolled copy loops to honor the data model's "edits produce a
// replacement value" rule.
package clone

import hclone "github.com/huandu/go-clone/generic"

// Of returns a deep copy of v, safe to mutate independently of the original.
func Of[T any](v T) T {
	return hclone.Clone(v)
}
