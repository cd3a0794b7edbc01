//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/obinnaokechukwu/videodec/codec"
)

// StreamMetadata describes one stream. Pointer fields are nil until the
// corresponding value is known; header fields are filled at open time and
// the FromScan fields after the index scan.
type StreamMetadata struct {
	StreamIndex int
	MediaType   codec.MediaType
	TimeBase    codec.Rational

	CodecName       *string
	BitRate         *int64
	DurationSeconds *float64
	NumFrames       *int64
	AverageFPS      *float64
	Width           *int
	Height          *int

	NumFramesFromScan     *int64
	MinPTSFromScan        *int64
	MaxPTSFromScan        *int64
	MinPTSSecondsFromScan *float64
	MaxPTSSecondsFromScan *float64
}

// ContainerMetadata describes an opened container and all of its streams.
type ContainerMetadata struct {
	DurationSeconds *float64
	BitRate         *int64

	NumVideoStreams int
	NumAudioStreams int

	BestVideoStreamIndex *int
	BestAudioStreamIndex *int

	Streams []StreamMetadata
}

func ptrTo[T any](v T) *T { return &v }

func cloneStream(s StreamMetadata) StreamMetadata {
	c := s
	c.CodecName = clonePtr(s.CodecName)
	c.BitRate = clonePtr(s.BitRate)
	c.DurationSeconds = clonePtr(s.DurationSeconds)
	c.NumFrames = clonePtr(s.NumFrames)
	c.AverageFPS = clonePtr(s.AverageFPS)
	c.Width = clonePtr(s.Width)
	c.Height = clonePtr(s.Height)
	c.NumFramesFromScan = clonePtr(s.NumFramesFromScan)
	c.MinPTSFromScan = clonePtr(s.MinPTSFromScan)
	c.MaxPTSFromScan = clonePtr(s.MaxPTSFromScan)
	c.MinPTSSecondsFromScan = clonePtr(s.MinPTSSecondsFromScan)
	c.MaxPTSSecondsFromScan = clonePtr(s.MaxPTSSecondsFromScan)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// clone deep-copies the metadata so callers cannot mutate decoder state.
func (m ContainerMetadata) clone() ContainerMetadata {
	c := m
	c.DurationSeconds = clonePtr(m.DurationSeconds)
	c.BitRate = clonePtr(m.BitRate)
	c.BestVideoStreamIndex = clonePtr(m.BestVideoStreamIndex)
	c.BestAudioStreamIndex = clonePtr(m.BestAudioStreamIndex)
	c.Streams = make([]StreamMetadata, len(m.Streams))
	for i, s := range m.Streams {
		c.Streams[i] = cloneStream(s)
	}
	return c
}

// mapToJSON renders fields as a JSON object with keys in sorted order.
// Values arrive pre-rendered, so strings must already be quoted.
func mapToJSON(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(fields[k])
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func jsonFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func jsonInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// JSONMetadata renders the best-video-stream projection: a flat object
// mixing container fields with the best video stream's fields.
func (d *Decoder) JSONMetadata() string {
	m := d.meta
	fields := map[string]string{}

	duration := 0.0
	var best *StreamMetadata
	if m.BestVideoStreamIndex != nil {
		best = &m.Streams[*m.BestVideoStreamIndex]
	}
	switch {
	case best != nil && best.DurationSeconds != nil:
		duration = *best.DurationSeconds
	case m.DurationSeconds != nil:
		duration = *m.DurationSeconds
	}
	fields["durationSeconds"] = jsonFloat(duration)

	if m.BitRate != nil {
		fields["bitRate"] = jsonInt(*m.BitRate)
	}
	if best != nil {
		// The stream's own bit rate wins over the container-level value.
		if best.BitRate != nil {
			fields["bitRate"] = jsonInt(*best.BitRate)
		}
		switch {
		case best.NumFramesFromScan != nil:
			fields["numFrames"] = jsonInt(*best.NumFramesFromScan)
		case best.NumFrames != nil:
			fields["numFrames"] = jsonInt(*best.NumFrames)
		}
		if best.MinPTSSecondsFromScan != nil {
			fields["minPtsSecondsFromScan"] = jsonFloat(*best.MinPTSSecondsFromScan)
		}
		if best.MaxPTSSecondsFromScan != nil {
			fields["maxPtsSecondsFromScan"] = jsonFloat(*best.MaxPTSSecondsFromScan)
		}
		if best.CodecName != nil {
			fields["codec"] = strconv.Quote(*best.CodecName)
		}
		if best.Width != nil {
			fields["width"] = jsonInt(int64(*best.Width))
		}
		if best.Height != nil {
			fields["height"] = jsonInt(int64(*best.Height))
		}
		if best.AverageFPS != nil {
			fields["averageFps"] = jsonFloat(*best.AverageFPS)
		}
	}
	if m.BestVideoStreamIndex != nil {
		fields["bestVideoStreamIndex"] = jsonInt(int64(*m.BestVideoStreamIndex))
	}
	if m.BestAudioStreamIndex != nil {
		fields["bestAudioStreamIndex"] = jsonInt(int64(*m.BestAudioStreamIndex))
	}
	return mapToJSON(fields)
}

// ContainerJSONMetadata renders container-level fields only.
func (d *Decoder) ContainerJSONMetadata() string {
	m := d.meta
	fields := map[string]string{
		"numStreams": jsonInt(int64(len(m.Streams))),
	}
	if m.DurationSeconds != nil {
		fields["durationSeconds"] = jsonFloat(*m.DurationSeconds)
	}
	if m.BitRate != nil {
		fields["bitRate"] = jsonInt(*m.BitRate)
	}
	if m.BestVideoStreamIndex != nil {
		fields["bestVideoStreamIndex"] = jsonInt(int64(*m.BestVideoStreamIndex))
	}
	if m.BestAudioStreamIndex != nil {
		fields["bestAudioStreamIndex"] = jsonInt(int64(*m.BestAudioStreamIndex))
	}
	return mapToJSON(fields)
}

// StreamJSONMetadata renders the fields of one stream.
func (d *Decoder) StreamJSONMetadata(streamIndex int) (string, error) {
	const op = "stream_json_metadata"
	if streamIndex < 0 || streamIndex >= len(d.meta.Streams) {
		return "", newError(KindInvalidArgument, op,
			"stream index %d out of range [0, %d)", streamIndex, len(d.meta.Streams))
	}
	s := d.meta.Streams[streamIndex]
	fields := map[string]string{}
	if s.DurationSeconds != nil {
		fields["durationSeconds"] = jsonFloat(*s.DurationSeconds)
	}
	if s.BitRate != nil {
		fields["bitRate"] = jsonInt(*s.BitRate)
	}
	if s.NumFramesFromScan != nil {
		fields["numFramesFromScan"] = jsonInt(*s.NumFramesFromScan)
	}
	if s.NumFrames != nil {
		fields["numFrames"] = jsonInt(*s.NumFrames)
	}
	if s.MinPTSSecondsFromScan != nil {
		fields["minPtsSecondsFromScan"] = jsonFloat(*s.MinPTSSecondsFromScan)
	}
	if s.MaxPTSSecondsFromScan != nil {
		fields["maxPtsSecondsFromScan"] = jsonFloat(*s.MaxPTSSecondsFromScan)
	}
	if s.CodecName != nil {
		fields["codec"] = strconv.Quote(*s.CodecName)
	}
	if s.Width != nil {
		fields["width"] = jsonInt(int64(*s.Width))
	}
	if s.Height != nil {
		fields["height"] = jsonInt(int64(*s.Height))
	}
	if s.AverageFPS != nil {
		fields["averageFps"] = jsonFloat(*s.AverageFPS)
	}
	return mapToJSON(fields), nil
}
