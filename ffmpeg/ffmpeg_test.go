//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/obinnaokechukwu/videodec/codec"
)

// createTestVideo renders a short test clip with the ffmpeg CLI. Tests
// that need real media skip when neither the CLI nor the libraries are
// available.
func createTestVideo(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.mp4")

	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=25",
		"-c:v", "libx264", "-preset", "ultrafast",
		"-g", "12",
		"-pix_fmt", "yuv420p",
		testFile)

	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg CLI not available or failed: %v", err)
		return ""
	}
	if _, err := os.Stat(testFile); err != nil {
		t.Skipf("test file not created: %v", err)
		return ""
	}
	return testFile
}

func requireLibraries(t *testing.T) {
	t.Helper()
	if err := Load(); err != nil {
		t.Skipf("FFmpeg libraries not available: %v", err)
	}
}

func TestLoad(t *testing.T) {
	requireLibraries(t)
	v := Versions()
	if v.AVFormat == "unknown" {
		t.Error("avformat version unknown after Load")
	}
	t.Logf("versions: avutil=%s avcodec=%s avformat=%s avfilter=%s",
		v.AVUtil, v.AVCodec, v.AVFormat, v.AVFilter)
}

func TestOpenMissingFile(t *testing.T) {
	requireLibraries(t)
	_, err := NewBackend().Open(codec.Source{Path: "/nonexistent/clip.mp4"})
	if err == nil {
		t.Fatal("expected error opening missing file")
	}
}

func TestOpenBadSource(t *testing.T) {
	requireLibraries(t)
	if _, err := NewBackend().Open(codec.Source{}); err == nil {
		t.Fatal("expected error for source with neither path nor reader")
	}
}

func TestContainerStreams(t *testing.T) {
	requireLibraries(t)
	testFile := createTestVideo(t)

	c, err := NewBackend().Open(codec.Source{Path: testFile})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.NumStreams() == 0 {
		t.Fatal("no streams")
	}
	best := c.BestStream(codec.MediaTypeVideo, -1)
	if best < 0 {
		t.Fatal("no best video stream")
	}
	h, err := c.Stream(best)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if h.MediaType != codec.MediaTypeVideo {
		t.Errorf("media type = %v, want video", h.MediaType)
	}
	if h.Width != 320 || h.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", h.Width, h.Height)
	}
	if h.CodecName != "h264" {
		t.Errorf("codec = %q, want h264", h.CodecName)
	}
	if h.TimeBase.Den == 0 {
		t.Error("stream has no time base")
	}
}

func TestDecodeFirstFrame(t *testing.T) {
	requireLibraries(t)
	testFile := createTestVideo(t)

	c, err := NewBackend().Open(codec.Source{Path: testFile})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	best := c.BestStream(codec.MediaTypeVideo, -1)
	dec, err := c.OpenDecoder(best, 0)
	if err != nil {
		t.Fatalf("OpenDecoder: %v", err)
	}
	defer dec.Close()

	scaler, err := dec.NewScaler(codec.ScalerConfig{Width: 160, Height: 120})
	if err != nil {
		t.Fatalf("NewScaler: %v", err)
	}
	defer scaler.Close()

	var fr codec.Frame
	for {
		err = dec.ReceiveFrame(&fr)
		if err == nil {
			break
		}
		if !errors.Is(err, codec.ErrAgain) {
			t.Fatalf("ReceiveFrame: %v", err)
		}
		var pkt codec.Packet
		if err := c.ReadPacket(&pkt); err != nil {
			t.Fatalf("ReadPacket: %v", err)
		}
		if pkt.StreamIndex != best {
			continue
		}
		if err := dec.SendPacket(&pkt); err != nil {
			t.Fatalf("SendPacket: %v", err)
		}
	}

	img, err := scaler.Scale(&fr)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if img.Width != 160 || img.Height != 120 {
		t.Errorf("scaled to %dx%d, want 160x120", img.Width, img.Height)
	}
	if img.Stride < img.Width*3 {
		t.Errorf("stride %d below row size %d", img.Stride, img.Width*3)
	}
	if len(img.Pix) < img.Height*img.Stride {
		t.Errorf("pix has %d bytes, want at least %d", len(img.Pix), img.Height*img.Stride)
	}
}

func TestReaderSource(t *testing.T) {
	requireLibraries(t)
	testFile := createTestVideo(t)

	f, err := os.Open(testFile)
	if err != nil {
		t.Fatalf("os.Open: %v", err)
	}
	defer f.Close()

	c, err := NewBackend().Open(codec.Source{Reader: f, BufferSize: 64 * 1024})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	var pkt codec.Packet
	if err := c.ReadPacket(&pkt); err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt.Duration < 0 {
		t.Errorf("packet duration = %d", pkt.Duration)
	}
}
