//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"errors"

	"github.com/obinnaokechukwu/videodec/codec"
)

// framePredicate decides whether a decoded frame is the one the caller
// asked for. Rejected frames are discarded and decoding continues.
type framePredicate func(st *streamState, fr *codec.Frame) bool

// decodeOutput runs the demux/decode loop until a frame on any active
// stream satisfies accept. Stats are reset at entry so they describe this
// call alone.
func (d *Decoder) decodeOutput(op string, accept framePredicate) (DecodedOutput, error) {
	d.stats = DecodeStats{}

	if err := d.consumePendingSeek(); err != nil {
		return DecodedOutput{}, err
	}
	if len(d.activeStreams) == 0 {
		return DecodedOutput{}, newError(KindInvalidArgument, op, "no active streams")
	}

	var (
		winner     *streamState
		frame      codec.Frame
		reachedEOF bool
	)

loop:
	for {
		// Drain decoded frames before feeding more input.
		for _, idx := range d.activeStreams {
			st := d.streams[idx]
			err := st.dec.ReceiveFrame(&frame)
			switch {
			case err == nil:
				d.stats.NumFramesReceivedByDecoder++
				if accept(st, &frame) {
					winner = st
					break loop
				}
				// Not the frame we want; keep decoding.
				continue loop
			case errors.Is(err, codec.ErrAgain):
				continue
			case errors.Is(err, codec.ErrEOF):
				return DecodedOutput{}, newError(KindEndOfStream, op, "no more frames")
			default:
				return DecodedOutput{}, wrapError(KindIO, op, err)
			}
		}

		var pkt codec.Packet
		err := d.container.ReadPacket(&pkt)
		d.stats.NumPacketsRead++
		if errors.Is(err, codec.ErrEOF) {
			if !reachedEOF {
				reachedEOF = true
				for _, idx := range d.activeStreams {
					if err := d.streams[idx].dec.SendPacket(nil); err != nil {
						return DecodedOutput{}, wrapError(KindIO, op, err)
					}
				}
			}
			continue
		}
		if err != nil {
			return DecodedOutput{}, wrapError(KindIO, op, err)
		}

		st, ok := d.streams[pkt.StreamIndex]
		if !ok || !st.active() {
			continue
		}
		if err := st.dec.SendPacket(&pkt); err != nil {
			return DecodedOutput{}, wrapError(KindIO, op, err)
		}
		d.stats.NumPacketsSentToDecoder++
	}

	winner.currentPTS = frame.PTS
	winner.currentDuration = frame.Duration
	d.debugf("frame decoded", "stream", winner.streamIndex, "pts", frame.PTS, "stats", d.stats.String())
	return d.convertFrame(op, winner, &frame)
}
