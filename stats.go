//go:build !ios && !android && (amd64 || arm64)

package videodec

import "fmt"

// DecodeStats counts the demux and decode work performed by the most recent
// frame-producing call. The counters are reset at the start of every such
// call, so they always describe exactly one NextFrame, FrameAtPTS or
// FrameAtIndex (FramesAtIndices leaves the stats of its last slot).
type DecodeStats struct {
	// NumSeeksAttempted counts seek requests considered, whether or not
	// the demuxer was actually repositioned.
	NumSeeksAttempted int64

	// NumSeeksSkipped counts seek requests satisfied without touching the
	// demuxer because the target lies ahead in the current keyframe span.
	NumSeeksSkipped int64

	// NumFlushes counts decoder buffer flushes after a real seek.
	NumFlushes int64

	// NumPacketsRead counts packet read attempts against the container.
	NumPacketsRead int64

	// NumPacketsSentToDecoder counts packets forwarded to a decoder.
	NumPacketsSentToDecoder int64

	// NumFramesReceivedByDecoder counts frames the decoders produced,
	// including frames the caller never saw because they were skipped on
	// the way to a seek target.
	NumFramesReceivedByDecoder int64
}

// String formats the counters on one line for logs.
func (s DecodeStats) String() string {
	return fmt.Sprintf(
		"seeks=%d skipped=%d flushes=%d packets_read=%d packets_sent=%d frames_received=%d",
		s.NumSeeksAttempted, s.NumSeeksSkipped, s.NumFlushes,
		s.NumPacketsRead, s.NumPacketsSentToDecoder, s.NumFramesReceivedByDecoder)
}
