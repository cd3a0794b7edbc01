//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"math"
	"sort"
)

// maybeSeek positions every active stream for the desired time in seconds.
// The demuxer is only repositioned when the target is behind the cursor or
// beyond the current keyframe span; otherwise decoding forward reaches it.
func (d *Decoder) maybeSeek(desired float64) error {
	const op = "seek"
	d.stats.NumSeeksAttempted++

	for _, idx := range d.activeStreams {
		st := d.streams[idx]
		st.discardFramesBeforePTS = int64(desired * float64(st.timeBase.Den))
	}

	avoid := true
	for _, idx := range d.activeStreams {
		if !d.canAvoidSeek(d.streams[idx]) {
			avoid = false
			break
		}
	}
	if avoid {
		d.stats.NumSeeksSkipped++
		d.debugf("seek skipped", "desired", desired)
		return nil
	}

	first := d.activeStreams[0]
	st := d.streams[first]
	if err := d.container.SeekFile(first, math.MinInt64, st.discardFramesBeforePTS, st.discardFramesBeforePTS); err != nil {
		return wrapError(KindIO, op, err)
	}
	d.stats.NumFlushes++
	for _, idx := range d.activeStreams {
		d.streams[idx].dec.FlushBuffers()
	}
	d.debugf("seeked", "desired", desired, "target_pts", st.discardFramesBeforePTS)
	return nil
}

// canAvoidSeek reports whether decoding forward from the cursor reaches the
// stream's seek target without repositioning: the target must lie at or
// ahead of the cursor and share its keyframe bracket. Equal positions still
// seek so re-requesting the current frame reproduces it.
func (d *Decoder) canAvoidSeek(st *streamState) bool {
	target := st.discardFramesBeforePTS
	if target <= st.currentPTS {
		return false
	}
	cur := d.keyframeBefore(st, st.currentPTS)
	want := d.keyframeBefore(st, target)
	return cur >= 0 && cur == want
}

// keyframeBefore returns the position of the greatest keyframe with
// pts <= x in the scanned keyframe list, falling back to the demuxer's own
// index when the scan recorded no keyframes.
func (d *Decoder) keyframeBefore(st *streamState, x int64) int {
	if len(st.keyFrames) == 0 {
		return d.container.IndexSearch(st.streamIndex, x)
	}
	// First keyframe with pts > x; the one before it brackets x.
	i := sort.Search(len(st.keyFrames), func(i int) bool {
		return st.keyFrames[i].pts > x
	})
	return i - 1
}

// consumePendingSeek applies a deferred SeekToPTS target, if any.
func (d *Decoder) consumePendingSeek() error {
	if d.desiredPTS == nil {
		return nil
	}
	desired := *d.desiredPTS
	d.desiredPTS = nil
	return d.maybeSeek(desired)
}
