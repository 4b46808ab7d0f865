package ingest

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smazurov/restream/internal/config"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

// DefaultRTMPPort is used when an ingest URL has no port.
const DefaultRTMPPort = "1935"

// ProbeResult is the outcome of probing one ingest.
type ProbeResult struct {
	Ingest Ingest        `json:"ingest"`
	RTT    time.Duration `json:"rtt" doc:"Time to complete the RTMP handshake and connect command"`
	Error  string        `json:"error,omitempty"`
}

// Probe dials the RTMP server behind rawURL, performs the handshake and the
// connect command for its application and returns the elapsed time. Nothing
// is published.
func Probe(ctx context.Context, rawURL string) (time.Duration, error) {
	addr, app, err := splitRTMPURL(rawURL)
	if err != nil {
		return 0, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	start := time.Now()
	dialer := &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	client, err := rtmp.DialWithDialer(dialer, "rtmp", addr, &rtmp.ConnConfig{Logger: logger})
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer client.Close()

	result := make(chan error, 1)
	go func() {
		result <- client.Connect(&rtmpmsg.NetConnectionConnect{
			Command: rtmpmsg.NetConnectionConnectCommand{
				App:   app,
				TCURL: "rtmp://" + addr + "/" + app,
			},
		})
	}()

	select {
	case err := <-result:
		if err != nil {
			return 0, fmt.Errorf("connect %s: %w", addr, err)
		}
		return time.Since(start), nil
	case <-ctx.Done():
		_ = client.Close()
		return 0, ctx.Err()
	}
}

// ProbeAll probes every ingest of c one after another with a per-ingest timeout.
func ProbeAll(ctx context.Context, c Catalog, timeout time.Duration) []ProbeResult {
	results := make([]ProbeResult, 0, len(c))
	for _, ing := range c {
		if ctx.Err() != nil {
			break
		}
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		rtt, err := Probe(probeCtx, ing.URL(""))
		cancel()
		res := ProbeResult{Ingest: ing, RTT: rtt}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// splitRTMPURL returns host:port and the application name of an RTMP URL.
func splitRTMPURL(rawURL string) (addr, app string, err error) {
	u, err := url.Parse(strings.ReplaceAll(rawURL, config.StreamKeyPlaceholder, ""))
	if err != nil {
		return "", "", fmt.Errorf("parse ingest url: %w", err)
	}
	if u.Scheme != "rtmp" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("ingest url %q has no host", rawURL)
	}
	port := u.Port()
	if port == "" {
		port = DefaultRTMPPort
	}
	app, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	return net.JoinHostPort(u.Hostname(), port), app, nil
}
