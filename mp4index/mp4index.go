// Package mp4index extracts per-sample presentation times directly from
// the sample tables of a progressive MP4 file. For MP4 input this yields
// the same frame index a full demux pass would, without touching the
// bitstream.
package mp4index

import (
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/obinnaokechukwu/videodec/codec"
)

// Frame is one sample's presentation position in track timescale units.
type Frame struct {
	PTS      int64
	Duration int64
	Key      bool
}

// Track is the frame table of one MP4 track.
type Track struct {
	// Timescale is the track's ticks-per-second unit for Frame values.
	Timescale uint32

	// Handler is the MP4 handler type, "vide" or "soun" for media tracks.
	Handler string

	// Frames is in decode order. For streams without composition offsets
	// this is also presentation order.
	Frames []Frame
}

// Read parses a progressive MP4 file and returns one Track per trak box,
// in file order. Fragmented files are rejected: their sample tables live
// in movie fragments, not in moov.
func Read(rs io.ReadSeeker) ([]Track, error) {
	f, err := mp4.DecodeFile(rs)
	if err != nil {
		return nil, err
	}
	if f.IsFragmented() {
		return nil, errors.New("mp4index: fragmented file has no usable sample tables")
	}
	if f.Moov == nil || len(f.Moov.Traks) == 0 {
		return nil, errors.New("mp4index: no tracks")
	}

	tracks := make([]Track, 0, len(f.Moov.Traks))
	for i, trak := range f.Moov.Traks {
		tr, err := trackFromBoxes(trak)
		if err != nil {
			return nil, fmt.Errorf("mp4index: track %d: %w", i, err)
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

func trackFromBoxes(trak *mp4.TrakBox) (Track, error) {
	if trak.Mdia == nil || trak.Mdia.Mdhd == nil {
		return Track{}, errors.New("missing mdhd")
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return Track{}, errors.New("missing stbl")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stts == nil {
		return Track{}, errors.New("missing stts")
	}

	tr := Track{Timescale: trak.Mdia.Mdhd.Timescale}
	if trak.Mdia.Hdlr != nil {
		tr.Handler = trak.Mdia.Hdlr.HandlerType
	}
	tr.Frames = expandSamples(stbl.Stts, stbl.Ctts, stbl.Stss)
	return tr, nil
}

// expandSamples walks the run-length encoded stts/ctts tables into one
// entry per sample and marks sync samples from stss. A missing stss box
// means every sample is a keyframe.
func expandSamples(stts *mp4.SttsBox, ctts *mp4.CttsBox, stss *mp4.StssBox) []Frame {
	var frames []Frame
	var decodeTime int64
	for e := range stts.SampleCount {
		count := stts.SampleCount[e]
		delta := int64(stts.SampleTimeDelta[e])
		for i := uint32(0); i < count; i++ {
			frames = append(frames, Frame{PTS: decodeTime, Duration: delta})
			decodeTime += delta
		}
	}

	if ctts != nil {
		k := 0
		for e := 0; e < ctts.NrSampleCount(); e++ {
			offset := int64(ctts.SampleOffset[e])
			for i := uint32(0); i < ctts.SampleCount(e) && k < len(frames); i++ {
				frames[k].PTS += offset
				k++
			}
		}
	}

	if stss == nil {
		for k := range frames {
			frames[k].Key = true
		}
	} else {
		for _, sn := range stss.SampleNumber {
			if sn >= 1 && int(sn) <= len(frames) {
				frames[sn-1].Key = true
			}
		}
	}
	return frames
}

// Rescale converts a track's frame table into the given stream time base.
// It succeeds only when every timestamp maps exactly; a lossy mapping
// returns false and the caller should fall back to demuxing.
func Rescale(tr Track, tb codec.Rational) ([]Frame, bool) {
	if tr.Timescale == 0 || tb.Num <= 0 || tb.Den <= 0 {
		return nil, false
	}
	// A value v in 1/timescale seconds is v*den/(timescale*num) ticks of
	// num/den.
	mul := int64(tb.Den)
	div := int64(tr.Timescale) * int64(tb.Num)

	out := make([]Frame, len(tr.Frames))
	for i, fr := range tr.Frames {
		pts := fr.PTS * mul
		dur := fr.Duration * mul
		if pts%div != 0 || dur%div != 0 {
			return nil, false
		}
		out[i] = Frame{PTS: pts / div, Duration: dur / div, Key: fr.Key}
	}
	return out, true
}
