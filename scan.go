//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/obinnaokechukwu/videodec/codec"
	"github.com/obinnaokechukwu/videodec/mp4index"
)

// scan builds the per-stream frame index. With WithMP4Index the index is
// read from the MP4 sample tables when possible; anything else falls back
// to demuxing every packet.
func (d *Decoder) scan() error {
	if d.mp4Index {
		if err := d.scanSampleTables(); err == nil {
			return nil
		} else {
			d.debugf("sample-table index unavailable, scanning packets", "err", err)
		}
	}
	return d.scanPackets()
}

// scanPackets demuxes the whole file once, recording every frame's position
// per stream, then rewinds the demuxer to the start.
func (d *Decoder) scanPackets() error {
	const op = "scan"

	type scanAcc struct {
		minPTS int64
		maxPTS int64
		n      int64
	}
	acc := make(map[int]*scanAcc)

	d.resetScanState()

	var pkt codec.Packet
	for {
		err := d.container.ReadPacket(&pkt)
		if errors.Is(err, codec.ErrEOF) {
			break
		}
		if err != nil {
			return wrapError(KindIO, op, err)
		}
		if pkt.Discard {
			continue
		}
		st := d.streamStateFor(pkt.StreamIndex)
		a := acc[pkt.StreamIndex]
		if a == nil {
			a = &scanAcc{minPTS: pkt.PTS, maxPTS: pkt.PTS + pkt.Duration}
			acc[pkt.StreamIndex] = a
		} else {
			a.minPTS = min(a.minPTS, pkt.PTS)
			a.maxPTS = max(a.maxPTS, pkt.PTS+pkt.Duration)
		}
		a.n++
		st.allFrames = append(st.allFrames, frameInfo{pts: pkt.PTS})
		if pkt.Keyframe {
			st.keyFrames = append(st.keyFrames, frameInfo{pts: pkt.PTS})
		}
	}

	for idx, a := range acc {
		d.recordScanResult(idx, a.n, a.minPTS, a.maxPTS)
	}
	d.sortScannedFrames()

	if err := d.container.SeekFile(0, math.MinInt64, 0, 0); err != nil {
		return wrapError(KindIO, op, err)
	}
	d.debugf("packet scan complete", "streams", len(acc))
	return nil
}

// scanSampleTables reads frame positions from the MP4 sample tables using
// an independent reader, leaving the demuxer untouched.
func (d *Decoder) scanSampleTables() error {
	rs, cleanup, err := d.indexReader()
	if err != nil {
		return err
	}
	defer cleanup()

	tracks, err := mp4index.Read(rs)
	if err != nil {
		return err
	}
	if len(tracks) != len(d.meta.Streams) {
		return fmt.Errorf("sample tables list %d tracks, container has %d streams",
			len(tracks), len(d.meta.Streams))
	}

	d.resetScanState()
	for i, tr := range tracks {
		st := d.streamStateFor(i)
		frames, ok := mp4index.Rescale(tr, st.timeBase)
		if !ok {
			return fmt.Errorf("track %d timescale %d does not map onto time base %d/%d",
				i, tr.Timescale, st.timeBase.Num, st.timeBase.Den)
		}
		if len(frames) == 0 {
			return fmt.Errorf("track %d has no samples", i)
		}
		minPTS, maxPTS := frames[0].PTS, frames[0].PTS+frames[0].Duration
		for _, fr := range frames {
			minPTS = min(minPTS, fr.PTS)
			maxPTS = max(maxPTS, fr.PTS+fr.Duration)
			st.allFrames = append(st.allFrames, frameInfo{pts: fr.PTS})
			if fr.Key {
				st.keyFrames = append(st.keyFrames, frameInfo{pts: fr.PTS})
			}
		}
		d.recordScanResult(i, int64(len(frames)), minPTS, maxPTS)
	}
	d.sortScannedFrames()
	d.debugf("sample-table scan complete", "tracks", len(tracks))
	return nil
}

// indexReader opens a reader over the container bytes that is independent
// of the demuxer's own position.
func (d *Decoder) indexReader() (rs io.ReadSeeker, cleanup func(), err error) {
	if d.src.Path != "" {
		f, err := os.Open(d.src.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if d.buf != nil {
		return bytes.NewReader(d.buf), func() {}, nil
	}
	return nil, nil, errors.New("no independent reader for this source")
}

// resetScanState clears everything a prior scan produced so a rescan is
// reproducible.
func (d *Decoder) resetScanState() {
	for _, st := range d.streams {
		st.allFrames = nil
		st.keyFrames = nil
	}
	for i := range d.meta.Streams {
		sm := &d.meta.Streams[i]
		sm.NumFramesFromScan = nil
		sm.MinPTSFromScan = nil
		sm.MaxPTSFromScan = nil
		sm.MinPTSSecondsFromScan = nil
		sm.MaxPTSSecondsFromScan = nil
	}
}

// recordScanResult publishes one stream's scan summary into the metadata.
// Seconds here use the full time-base rational.
func (d *Decoder) recordScanResult(idx int, n, minPTS, maxPTS int64) {
	sm := &d.meta.Streams[idx]
	tb := d.streamStateFor(idx).timeBase
	sm.NumFramesFromScan = ptrTo(n)
	sm.MinPTSFromScan = ptrTo(minPTS)
	sm.MaxPTSFromScan = ptrTo(maxPTS)
	sm.MinPTSSecondsFromScan = ptrTo(tb.Float64() * float64(minPTS))
	sm.MaxPTSSecondsFromScan = ptrTo(tb.Float64() * float64(maxPTS))
}

func (d *Decoder) sortScannedFrames() {
	for _, st := range d.streams {
		sort.Slice(st.allFrames, func(i, j int) bool {
			return st.allFrames[i].pts < st.allFrames[j].pts
		})
		sort.Slice(st.keyFrames, func(i, j int) bool {
			return st.keyFrames[i].pts < st.keyFrames[j].pts
		})
	}
}
