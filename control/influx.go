// control/influx.go
// Author: momentics <momentics@gmail.com>
//
// InfluxDB metrics push: encodes a MetricsRegistry snapshot as line
// protocol and ships it over the documented HTTP ingest API. The sink is
// an interface so tests and alternative backends can swap the wire out.

package control

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// MetricsSink receives one encoded metrics batch per push interval.
type MetricsSink interface {
	Push(lines string) error
}

// EncodeLineProtocol renders a metrics snapshot as InfluxDB line
// protocol: one line per metric, measurement name from the key, a single
// value field, nanosecond timestamp. Keys are sorted so output is
// deterministic.
func EncodeLineProtocol(measurementPrefix string, snapshot map[string]any, ts time.Time) string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := snapshot[k]
		var field string
		switch val := v.(type) {
		case int:
			field = fmt.Sprintf("value=%di", val)
		case int64:
			field = fmt.Sprintf("value=%di", val)
		case uint64:
			field = fmt.Sprintf("value=%di", val)
		case float64:
			field = fmt.Sprintf("value=%g", val)
		case bool:
			field = fmt.Sprintf("value=%t", val)
		case string:
			field = fmt.Sprintf("value=%q", val)
		default:
			continue // unrepresentable, drop
		}
		fmt.Fprintf(&b, "%s%s %s %d\n", measurementPrefix, escapeMeasurement(k), field, ts.UnixNano())
	}
	return b.String()
}

func escapeMeasurement(s string) string {
	s = strings.ReplaceAll(s, " ", "\\ ")
	return strings.ReplaceAll(s, ",", "\\,")
}

// InfluxHTTPSink pushes line protocol to an InfluxDB /write endpoint.
type InfluxHTTPSink struct {
	URL      string // e.g. http://host:8086
	Database string
	Username string
	Password string
	Client   *http.Client
}

// Push implements MetricsSink.
func (s *InfluxHTTPSink) Push(lines string) error {
	if lines == "" {
		return nil
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	q := url.Values{}
	q.Set("db", s.Database)
	if s.Username != "" {
		q.Set("u", s.Username)
		q.Set("p", s.Password)
	}
	resp, err := client.Post(s.URL+"/write?"+q.Encode(), "text/plain", strings.NewReader(lines))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("influx push: unexpected status %d", resp.StatusCode)
	}
	return nil
}
