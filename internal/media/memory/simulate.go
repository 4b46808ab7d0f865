package memory

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/restream/internal/media"
)

const (
	defaultFrameWidth  = 1280
	defaultFrameHeight = 720
)

// simulator feeds a playing graph with synthetic level messages and BGRA frames.
type simulator struct {
	graph    *Graph
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	tick     int
	buffers  map[string][]byte
}

func newSimulator(g *Graph, interval time.Duration) *simulator {
	return &simulator{
		graph:    g,
		interval: interval,
		done:     make(chan struct{}),
		buffers:  make(map[string][]byte),
	}
}

func (s *simulator) start() {
	s.wg.Add(1)
	go s.run()
}

func (s *simulator) stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *simulator) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.step()
		}
	}
}

type simSink struct {
	el            *Element
	fn            media.SampleFunc
	width, height int
}

func (s *simulator) step() {
	e := s.graph.engine
	e.mu.Lock()
	var levels []string
	var sinks []simSink
	for name, el := range s.graph.elements {
		if el.state != media.StatePlaying {
			continue
		}
		switch {
		case el.factory == "level":
			if post, _ := el.props["post-messages"].(bool); post {
				levels = append(levels, name)
			}
		case el.factory == "appsink" && el.onSample != nil:
			w, h := frameSize(el.props["caps"])
			sinks = append(sinks, simSink{el: el, fn: el.onSample, width: w, height: h})
		}
	}
	e.mu.Unlock()

	s.tick++
	for i, name := range levels {
		phase := float64(s.tick)/10 + float64(i)
		s.graph.Post(media.Message{
			Type:   media.MessageLevel,
			Source: name,
			RMS:    []float64{syntheticDB(phase), syntheticDB(phase + 0.5)},
		})
	}
	for _, sink := range sinks {
		_ = sink.fn(s.frame(sink))
	}
}

// syntheticDB swings between roughly -42 dB and -6 dB.
func syntheticDB(phase float64) float64 {
	return -24 + 18*math.Sin(phase)
}

// frame draws a vertical bar that moves one step per tick.
func (s *simulator) frame(sink simSink) []byte {
	size := sink.width * sink.height * 4
	buf := s.buffers[sink.el.name]
	if len(buf) != size {
		buf = make([]byte, size)
		s.buffers[sink.el.name] = buf
	}
	barX := (s.tick * 8) % sink.width
	for y := 0; y < sink.height; y++ {
		row := buf[y*sink.width*4 : (y+1)*sink.width*4]
		for x := 0; x < sink.width; x++ {
			px := row[x*4 : x*4+4]
			if x >= barX && x < barX+32 {
				px[0], px[1], px[2] = 0xff, 0xff, 0xff
			} else {
				px[0], px[1], px[2] = byte(x*255/sink.width), byte(y*255/sink.height), 0x40
			}
			px[3] = 0xff
		}
	}
	return buf
}

// frameSize extracts width and height from a caps property.
func frameSize(caps any) (int, int) {
	var str string
	switch v := caps.(type) {
	case media.Caps:
		str = string(v)
	case string:
		str = v
	}
	w, h := defaultFrameWidth, defaultFrameHeight
	for _, field := range strings.Split(str, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			continue
		}
		switch key {
		case "width":
			w = n
		case "height":
			h = n
		}
	}
	return w, h
}
