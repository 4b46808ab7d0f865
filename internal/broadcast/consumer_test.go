package broadcast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/meter"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func closeTo(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestConsumer_RoutesLevels(t *testing.T) {
	p, g := newTestPipeline(t, Options{})

	g.Post(media.Message{Type: media.MessageLevel, Source: outputLevelName, RMS: []float64{0, -20}})
	g.Post(media.Message{Type: media.MessageLevel, Source: micLevelName, RMS: []float64{-40, -40}})

	waitFor(t, "mic levels", func() bool { return p.MicLevels().Left > 0 })

	out := p.OutputLevels()
	if !closeTo(out.Left, 1) || !closeTo(out.Right, 0.1) {
		t.Errorf("Expected output levels {1 0.1}, got %+v", out)
	}
	mic := p.MicLevels()
	if !closeTo(mic.Left, 0.01) || !closeTo(mic.Right, 0.01) {
		t.Errorf("Expected mic levels {0.01 0.01}, got %+v", mic)
	}
}

func TestConsumer_LevelsDecay(t *testing.T) {
	p, g := newTestPipeline(t, Options{})

	g.Post(media.Message{Type: media.MessageLevel, Source: outputLevelName, RMS: []float64{0, 0}})
	g.Post(media.Message{Type: media.MessageLevel, Source: outputLevelName, RMS: []float64{math.Inf(-1), math.Inf(-1)}})
	// A sentinel on the other meter tells us both messages were consumed.
	g.Post(media.Message{Type: media.MessageLevel, Source: micLevelName, RMS: []float64{0, 0}})

	waitFor(t, "sentinel", func() bool { return p.MicLevels().Left > 0 })

	out := p.OutputLevels()
	if !closeTo(out.Left, meter.Decay) || !closeTo(out.Right, meter.Decay) {
		t.Errorf("Expected decayed levels %v, got %+v", meter.Decay, out)
	}
}

func TestConsumer_DropsMalformedAndUnknown(t *testing.T) {
	p, g := newTestPipeline(t, Options{})

	g.Post(media.Message{Type: media.MessageLevel, Source: outputLevelName, RMS: []float64{0}})
	g.Post(media.Message{Type: media.MessageLevel, Source: outputLevelName})
	g.Post(media.Message{Type: media.MessageLevel, Source: "some other level", RMS: []float64{0, 0}})
	g.Post(media.Message{Type: media.MessageOther, Source: videoMixerName})
	g.Post(media.Message{Type: media.MessageLevel, Source: micLevelName, RMS: []float64{0, 0}})

	waitFor(t, "sentinel", func() bool { return p.MicLevels().Left > 0 })

	if out := p.OutputLevels(); out.Left != 0 || out.Right != 0 {
		t.Errorf("Expected output levels untouched, got %+v", out)
	}
	select {
	case <-p.Done():
		t.Error("Malformed messages must not end the session")
	default:
	}
}

func TestFrame_LatestWins(t *testing.T) {
	p, g := newTestPipeline(t, Options{})
	sink := element(t, g, previewSinkName)

	if !p.Frame().Empty() {
		t.Fatal("Expected no frame before the first sample")
	}

	size := FrameWidth * FrameHeight * 4
	for i := byte(1); i <= 3; i++ {
		data := make([]byte, size)
		data[0] = i
		if err := sink.Emit(data); err != nil {
			t.Fatalf("Emit failed: %v", err)
		}
	}

	f := p.Frame()
	if f.Width != FrameWidth || f.Height != FrameHeight || len(f.Pixels) != size {
		t.Fatalf("Unexpected frame %dx%d with %d bytes", f.Width, f.Height, len(f.Pixels))
	}
	if f.Pixels[0] != 3 {
		t.Errorf("Expected newest frame, got marker %d", f.Pixels[0])
	}

	if err := sink.Emit(make([]byte, 16)); err != nil {
		t.Errorf("Short sample should be dropped quietly, got %v", err)
	}
	if p.Frame().Pixels[0] != 3 {
		t.Error("Short sample replaced the frame")
	}
}

func TestFrame_Image(t *testing.T) {
	f := Frame{Width: 2, Height: 1, Pixels: []byte{1, 2, 3, 255, 10, 20, 30, 255}}
	img := f.Image()

	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("Expected 2x1 image, got %v", b)
	}
	want := []byte{3, 2, 1, 255, 30, 20, 10, 255}
	for i, v := range want {
		if img.Pix[i] != v {
			t.Errorf("Pix[%d] = %d, want %d", i, img.Pix[i], v)
		}
	}
	if f.Pixels[0] != 1 {
		t.Error("Image must not modify the frame")
	}
}

func TestFatalError_EndsSession(t *testing.T) {
	bus := events.New()
	fatal := make(chan events.PipelineFatalEvent, 1)
	unsub := bus.Subscribe(func(e events.PipelineFatalEvent) { fatal <- e })
	defer unsub()

	p, g := newTestPipeline(t, Options{Events: bus})

	g.Post(media.Message{
		Type:   media.MessageError,
		Source: "rtmpsink0",
		Err:    errors.New("Could not connect to RTMP stream"),
		Debug:  "gstrtmp2sink.c(123)",
	})

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not end after error message")
	}

	err := p.Err()
	if !errors.Is(err, ErrStreamFatal) {
		t.Fatalf("Expected ErrStreamFatal, got %v", err)
	}
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Expected *StreamError, got %T", err)
	}
	if streamErr.Source != "rtmpsink0" || streamErr.Message != "Could not connect to RTMP stream" || streamErr.Debug != "gstrtmp2sink.c(123)" {
		t.Errorf("Unexpected error fields: %+v", streamErr)
	}
	if g.State() != media.StateNull {
		t.Errorf("Expected graph stopped, got %s", g.State())
	}

	select {
	case e := <-fatal:
		if e.Source != "rtmpsink0" || e.SessionID != p.ID() {
			t.Errorf("Unexpected fatal event %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("No PipelineFatalEvent received")
	}

	if err := p.ToggleCamera(); !errors.Is(err, ErrClosed) || !errors.Is(err, ErrStreamFatal) {
		t.Errorf("Expected toggle after fatal error to fail with ErrClosed, got %v", err)
	}
	if s := p.Status(); s.Running || s.Error == "" {
		t.Errorf("Expected stopped status with error, got %+v", s)
	}
}

func TestFatalError_WithoutSource(t *testing.T) {
	p, g := newTestPipeline(t, Options{})

	g.Post(media.Message{Type: media.MessageError, Err: errors.New("boom")})
	<-p.Done()

	var streamErr *StreamError
	if !errors.As(p.Err(), &streamErr) || streamErr.Source != "None" {
		t.Errorf("Expected source None, got %v", p.Err())
	}
}

func TestEOS_EndsSessionCleanly(t *testing.T) {
	p, g := newTestPipeline(t, Options{})

	g.Post(media.Message{Type: media.MessageEOS, Source: "restream"})

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not end after EOS")
	}
	if p.Err() != nil {
		t.Errorf("Expected nil error after EOS, got %v", p.Err())
	}
	if err := p.StartPublishing(testDestination); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
