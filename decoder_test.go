//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/videodec/codec"
	"github.com/obinnaokechukwu/videodec/codec/codectest"
)

// testBackend is a 30-frame, 10 fps synthetic video with a keyframe every
// 5 frames: pts 0..29 in a 1/10 time base, keyframes at 0,5,10,15,20,25.
func testBackend() *codectest.Backend {
	return &codectest.Backend{
		Streams:         []codectest.StreamSpec{codectest.Video(30, 10, 5, 16, 8)},
		DurationSeconds: 3.0,
		BitRate:         800_000,
	}
}

func openTestDecoder(t *testing.T, b *codectest.Backend) *Decoder {
	t.Helper()
	d, err := New("test.mp4", WithBackend(b))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func addStream(t *testing.T, d *Decoder, opts VideoStreamOptions) {
	t.Helper()
	require.NoError(t, d.AddVideoStream(opts))
}

// checkPixels verifies the synthetic pixel pattern of the test scaler:
// R carries the pts, G the column, B the row.
func checkPixels(t *testing.T, img Image, pts int64) {
	t.Helper()
	for _, p := range [][2]int{{0, 0}, {img.Width - 1, 0}, {0, img.Height - 1}, {img.Width - 1, img.Height - 1}} {
		x, y := p[0], p[1]
		assert.Equal(t, byte(pts), img.At(x, y, 0), "R at (%d,%d)", x, y)
		assert.Equal(t, byte(x), img.At(x, y, 1), "G at (%d,%d)", x, y)
		assert.Equal(t, byte(y), img.At(x, y, 2), "B at (%d,%d)", x, y)
	}
}

func TestOpenInvalidInput(t *testing.T) {
	_, err := New("", WithBackend(testBackend()))
	assert.True(t, IsInvalidInput(err))

	_, err = NewFromBytes(nil, WithBackend(testBackend()))
	assert.True(t, IsInvalidInput(err))

	_, err = New("test.mp4", WithBackend(&codectest.Backend{FailOpen: true}))
	assert.True(t, IsInvalidInput(err))
}

func TestMetadataAfterOpen(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	m := d.Metadata()

	require.Len(t, m.Streams, 1)
	require.NotNil(t, m.DurationSeconds)
	assert.Equal(t, 3.0, *m.DurationSeconds)
	require.NotNil(t, m.BitRate)
	assert.Equal(t, int64(800_000), *m.BitRate)
	require.NotNil(t, m.BestVideoStreamIndex)
	assert.Equal(t, 0, *m.BestVideoStreamIndex)
	assert.Nil(t, m.BestAudioStreamIndex)
	assert.Equal(t, 1, m.NumVideoStreams)

	s := m.Streams[0]
	assert.Equal(t, codec.MediaTypeVideo, s.MediaType)
	require.NotNil(t, s.CodecName)
	assert.Equal(t, "h264", *s.CodecName)
	require.NotNil(t, s.NumFrames)
	assert.Equal(t, int64(30), *s.NumFrames)
	require.NotNil(t, s.DurationSeconds)
	assert.InDelta(t, 3.0, *s.DurationSeconds, 1e-9)

	require.NotNil(t, s.NumFramesFromScan)
	assert.Equal(t, int64(30), *s.NumFramesFromScan)
	require.NotNil(t, s.MinPTSSecondsFromScan)
	assert.Equal(t, 0.0, *s.MinPTSSecondsFromScan)
	require.NotNil(t, s.MaxPTSSecondsFromScan)
	assert.InDelta(t, 3.0, *s.MaxPTSSecondsFromScan, 1e-9)
}

func TestMetadataIsACopy(t *testing.T) {
	d := openTestDecoder(t, testBackend())

	m1 := d.Metadata()
	*m1.DurationSeconds = 99.0
	m1.Streams[0].CodecName = nil

	m2 := d.Metadata()
	assert.Equal(t, 3.0, *m2.DurationSeconds)
	require.NotNil(t, m2.Streams[0].CodecName)

	assert.Equal(t, d.Metadata(), d.Metadata())
}

func TestAddVideoStreamValidation(t *testing.T) {
	b := testBackend()
	b.Streams = append(b.Streams, codectest.StreamSpec{
		MediaType: codec.MediaTypeAudio,
		CodecName: "aac",
		TimeBase:  codec.NewRational(1, 48000),
	})
	d := openTestDecoder(t, b)

	opts := NewVideoStreamOptions()
	opts.StreamIndex = 1
	assert.True(t, IsInvalidArgument(d.AddVideoStream(opts)), "audio stream")

	opts.StreamIndex = 7
	assert.True(t, IsInvalidArgument(d.AddVideoStream(opts)), "out of range")

	opts = NewVideoStreamOptions()
	opts.Width = -1
	assert.True(t, IsInvalidArgument(d.AddVideoStream(opts)), "negative width")

	addStream(t, d, NewVideoStreamOptions())
	assert.True(t, IsInvalidArgument(d.AddVideoStream(NewVideoStreamOptions())), "double add")
}

func TestAddAudioStreamUnsupported(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	assert.True(t, IsUnsupported(d.AddAudioStream(0)))
}

func TestNextFrameWithoutActiveStream(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	_, err := d.NextFrame()
	assert.True(t, IsInvalidArgument(err))
}

func TestNextFrameSequence(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	for i := int64(0); i < 3; i++ {
		out, err := d.NextFrame()
		require.NoError(t, err)
		assert.Equal(t, i, out.PTS)
		assert.InDelta(t, float64(i)/10, out.PTSSeconds, 1e-9)
		assert.Equal(t, 0, out.StreamIndex)
		assert.Equal(t, codec.MediaTypeVideo, out.MediaType)
		assert.Equal(t, [3]int{8, 16, 3}, out.Image.Shape())
		checkPixels(t, out.Image, i)

		stats := d.Stats()
		assert.Equal(t, int64(1), stats.NumPacketsRead)
		assert.Equal(t, int64(1), stats.NumPacketsSentToDecoder)
		assert.Equal(t, int64(1), stats.NumFramesReceivedByDecoder)
		assert.Equal(t, int64(0), stats.NumSeeksAttempted)
	}
}

func TestFrameAtPTSSeeks(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	// 1.55 s lands inside frame 15 [1.5, 1.6), which is a keyframe.
	out, err := d.FrameAtPTS(1.55)
	require.NoError(t, err)
	assert.Equal(t, int64(15), out.PTS)
	assert.InDelta(t, 1.5, out.PTSSeconds, 1e-9)
	checkPixels(t, out.Image, 15)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.NumSeeksAttempted)
	assert.Equal(t, int64(0), stats.NumSeeksSkipped)
	assert.Equal(t, int64(1), stats.NumFlushes)
	assert.Equal(t, int64(1), stats.NumFramesReceivedByDecoder)
}

func TestSeekAvoidedInsideKeyframeSpan(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	_, err := d.FrameAtPTS(1.55)
	require.NoError(t, err)

	// 1.65 s is ahead of the cursor and shares keyframe 15; the demuxer
	// must not move.
	d.SeekToPTS(1.65)
	out, err := d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, int64(16), out.PTS)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.NumSeeksAttempted)
	assert.Equal(t, int64(1), stats.NumSeeksSkipped)
	assert.Equal(t, int64(0), stats.NumFlushes)
}

func TestBackwardSeekFlushes(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	_, err := d.FrameAtPTS(1.65)
	require.NoError(t, err)

	// 0.7 s is behind the cursor: real seek to keyframe 5, then decode
	// frames 5 and 6 on the way to 7.
	out, err := d.FrameAtPTS(0.7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.PTS)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.NumSeeksAttempted)
	assert.Equal(t, int64(0), stats.NumSeeksSkipped)
	assert.Equal(t, int64(1), stats.NumFlushes)
	assert.Equal(t, int64(3), stats.NumFramesReceivedByDecoder)
	assert.Equal(t, int64(3), stats.NumPacketsRead)
}

func TestFrameAtPTSInsideCurrentFrame(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	out, err := d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.PTS)

	// A target inside the frame just delivered reproduces that frame.
	out, err = d.FrameAtPTS(0.05)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.PTS)
}

func TestFrameAtIndex(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	out, err := d.FrameAtIndex(0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.PTS)
	checkPixels(t, out.Image, 10)

	_, err = d.FrameAtIndex(0, 30)
	assert.True(t, IsInvalidArgument(err), "index past end")
	_, err = d.FrameAtIndex(0, -1)
	assert.True(t, IsInvalidArgument(err), "negative index")
	_, err = d.FrameAtIndex(5, 0)
	assert.True(t, IsInvalidArgument(err), "unknown stream")
}

func TestFrameAtIndexInactiveStream(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	_, err := d.FrameAtIndex(0, 0)
	assert.True(t, IsInvalidArgument(err))
}

func TestFramesAtIndices(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	batch, err := d.FramesAtIndices(0, []int{2, 7, 2})
	require.NoError(t, err)
	assert.Equal(t, [4]int{3, 8, 16, 3}, batch.Shape())

	for slot, pts := range []int64{2, 7, 2} {
		checkPixels(t, batch.Image(slot), pts)
	}
}

func TestEndOfStream(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	out, err := d.FrameAtIndex(0, 29)
	require.NoError(t, err)
	assert.Equal(t, int64(29), out.PTS)

	_, err = d.NextFrame()
	assert.True(t, IsEndOfStream(err))

	// Still at end on the next call.
	_, err = d.NextFrame()
	assert.True(t, IsEndOfStream(err))
}

func TestSeekWithoutKeyframes(t *testing.T) {
	b := &codectest.Backend{
		Streams: []codectest.StreamSpec{codectest.Video(20, 10, 0, 16, 8)},
	}
	d := openTestDecoder(t, b)
	addStream(t, d, NewVideoStreamOptions())

	// No keyframe index: every seek repositions to the start and decodes
	// forward.
	out, err := d.FrameAtPTS(0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.PTS)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.NumFlushes)
	assert.Equal(t, int64(6), stats.NumFramesReceivedByDecoder)
}

func TestResizedOutput(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	opts := NewVideoStreamOptions()
	opts.Width, opts.Height = 8, 4
	addStream(t, d, opts)

	out, err := d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 8, 3}, out.Image.Shape())
	checkPixels(t, out.Image, 0)
}

func TestNCHWOutput(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	opts := NewVideoStreamOptions()
	opts.Layout = LayoutNCHW
	addStream(t, d, opts)

	out, err := d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 8, 16}, out.Image.Shape())
	checkPixels(t, out.Image, 0)

	batch, err := d.FramesAtIndices(0, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, [4]int{2, 3, 8, 16}, batch.Shape())
	checkPixels(t, batch.Image(0), 1)
	checkPixels(t, batch.Image(1), 3)
}

func TestTwoVideoStreams(t *testing.T) {
	b := testBackend()
	b.Streams = append(b.Streams, codectest.Video(30, 10, 5, 8, 4))
	d := openTestDecoder(t, b)

	opts := NewVideoStreamOptions()
	opts.StreamIndex = 1
	addStream(t, d, opts)

	out, err := d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 1, out.StreamIndex)
	assert.Equal(t, [3]int{4, 8, 3}, out.Image.Shape())
}

func TestStatsDescribeLastCallOnly(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	addStream(t, d, NewVideoStreamOptions())

	_, err := d.FrameAtPTS(2.0)
	require.NoError(t, err)
	_, err = d.NextFrame()
	require.NoError(t, err)

	stats := d.Stats()
	assert.Equal(t, int64(0), stats.NumSeeksAttempted)
	assert.Equal(t, int64(1), stats.NumFramesReceivedByDecoder)
}

func TestCloseIdempotent(t *testing.T) {
	d, err := New("test.mp4", WithBackend(testBackend()))
	require.NoError(t, err)
	require.NoError(t, d.AddVideoStream(NewVideoStreamOptions()))
	assert.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

func TestScanSortsFramesAndSkipsDiscard(t *testing.T) {
	// Decode order with out-of-order presentation times and one packet
	// flagged for discard.
	spec := codectest.StreamSpec{
		MediaType: codec.MediaTypeVideo,
		CodecName: "h264",
		TimeBase:  codec.NewRational(1, 10),
		Width:     16,
		Height:    8,
		Frames: []codectest.FrameSpec{
			{PTS: 0, Duration: 1, Key: true},
			{PTS: 2, Duration: 1},
			{PTS: 1, Duration: 1},
			{PTS: 5, Duration: 1, Key: true},
			{PTS: 3, Duration: 1, Discard: true},
			{PTS: 4, Duration: 1},
		},
	}
	d := openTestDecoder(t, &codectest.Backend{Streams: []codectest.StreamSpec{spec}})

	st := d.streams[0]
	var all, keys []int64
	for _, fr := range st.allFrames {
		all = append(all, fr.pts)
	}
	for _, fr := range st.keyFrames {
		keys = append(keys, fr.pts)
	}
	assert.Equal(t, []int64{0, 1, 2, 4, 5}, all)
	assert.Equal(t, []int64{0, 5}, keys)
	assert.Equal(t, 5, d.NumFrames(0))

	s := d.Metadata().Streams[0]
	require.NotNil(t, s.NumFramesFromScan)
	assert.Equal(t, int64(5), *s.NumFramesFromScan)
	assert.Equal(t, int64(0), *s.MinPTSFromScan)
	assert.Equal(t, int64(6), *s.MaxPTSFromScan)
	assert.InDelta(t, 0.0, *s.MinPTSSecondsFromScan, 1e-9)
	assert.InDelta(t, 0.6, *s.MaxPTSSecondsFromScan, 1e-9)
}

func TestSeekPlannerWithSparseKeyframes(t *testing.T) {
	// 30 frames at 10 fps with keyframes at 0, 10 and 20 only.
	b := &codectest.Backend{
		Streams:         []codectest.StreamSpec{codectest.Video(30, 10, 10, 16, 8)},
		DurationSeconds: 3.0,
		BitRate:         800_000,
	}
	d := openTestDecoder(t, b)
	addStream(t, d, NewVideoStreamOptions())
	require.Len(t, d.streams[0].keyFrames, 3)

	for i := int64(0); i < 3; i++ {
		out, err := d.NextFrame()
		require.NoError(t, err)
		assert.Equal(t, i, out.PTS)
	}

	// 1.55 s: real seek to keyframe 10, then six decodes up to frame 15.
	out, err := d.FrameAtPTS(1.55)
	require.NoError(t, err)
	assert.Equal(t, int64(15), out.PTS)
	stats := d.Stats()
	assert.Equal(t, int64(1), stats.NumSeeksAttempted)
	assert.Equal(t, int64(0), stats.NumSeeksSkipped)
	assert.Equal(t, int64(1), stats.NumFlushes)
	assert.Equal(t, int64(6), stats.NumFramesReceivedByDecoder)

	// 1.65 s shares keyframe 10 with the cursor: no demuxer movement.
	d.SeekToPTS(1.65)
	out, err = d.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, int64(16), out.PTS)
	stats = d.Stats()
	assert.Equal(t, int64(1), stats.NumSeeksSkipped)
	assert.Equal(t, int64(0), stats.NumFlushes)

	// 0.5 s is behind the cursor: back to keyframe 0 with a flush.
	out, err = d.FrameAtPTS(0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.PTS)
	stats = d.Stats()
	assert.Equal(t, int64(0), stats.NumSeeksSkipped)
	assert.Equal(t, int64(1), stats.NumFlushes)
	assert.Equal(t, int64(6), stats.NumFramesReceivedByDecoder)
}

func TestMP4IndexFallsBackForNonMP4(t *testing.T) {
	// The bytes are not MP4, so the sample-table path fails and the
	// packet scan must produce the index.
	d, err := NewFromBytes([]byte("not an mp4 file at all"),
		WithBackend(testBackend()), WithMP4Index())
	require.NoError(t, err)
	defer d.Close()

	addStream(t, d, NewVideoStreamOptions())
	assert.Equal(t, 30, d.NumFrames(0))

	out, err := d.FrameAtIndex(0, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.PTS)
}
