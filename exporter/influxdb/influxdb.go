package influxdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "influxdb"

// DefaultMeasurement is the measurement every sample is written to.
const DefaultMeasurement = "search_latency"

// Exporter writes every sample of a run to an InfluxDB bucket, plus
// one summary point per endpoint.
type Exporter struct {
	// URL of the InfluxDB server. If empty, it is built from
	// Host and Port.
	URL  string `json:"url,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	Bucket string `json:"bucket"`
	Org    string `json:"org"`
	Token  string `json:"token"`

	// Measurement names the sample points; the summary points
	// use the same name with a "_summary" suffix.
	Measurement string `json:"measurement,omitempty"`

	// Timeout bounds one Export. Default is 10 seconds.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// New creates a new Exporter instance based on json config
func New(config json.RawMessage) (Exporter, error) {
	var exporter Exporter
	if err := json.Unmarshal(config, &exporter); err != nil {
		return exporter, err
	}
	if exporter.Measurement == "" {
		exporter.Measurement = DefaultMeasurement
	}
	if _, err := exporter.serverURL(); err != nil {
		return exporter, err
	}
	if exporter.Bucket == "" || exporter.Org == "" {
		return exporter, errors.New("missing InfluxDB bucket or org")
	}
	return exporter, nil
}

// Type returns the exporter package name
func (Exporter) Type() string {
	return Type
}

func (e Exporter) serverURL() (string, error) {
	if e.URL != "" {
		return e.URL, nil
	}
	if e.Host == "" {
		return "", errors.New("missing InfluxDB url or host")
	}
	port := e.Port
	if port == 0 {
		port = 8086
	}
	return fmt.Sprintf("http://%s:%d", e.Host, port), nil
}

// Export writes the points of results with a blocking write.
func (e Exporter) Export(results []types.Result) error {
	serverURL, err := e.serverURL()
	if err != nil {
		return err
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := influxdb2.NewClient(serverURL, e.Token)
	defer client.Close()

	points := e.points(results)
	writeAPI := client.WriteAPIBlocking(e.Org, e.Bucket)
	if err := writeAPI.WritePoint(ctx, points...); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"exporter": Type, "points": len(points)}).Debug("wrote points")
	return nil
}

func (e Exporter) points(results []types.Result) []*write.Point {
	measurement := e.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}

	var points []*write.Point
	for _, r := range results {
		tags := map[string]string{
			"endpoint": r.Endpoint,
			"title":    r.Title,
		}
		start := time.Unix(0, r.Timestamp)
		if r.Timestamp == 0 {
			start = time.Now()
		}

		for i, s := range r.Times {
			fields := map[string]interface{}{
				"attempt": i + 1,
			}
			if s.Failed() {
				fields["error"] = s.Error
			} else {
				fields["rtt_ms"] = float64(s.RTT) / float64(time.Millisecond)
			}
			// Samples of one endpoint share their tags, so each
			// needs its own timestamp.
			points = append(points, influxdb2.NewPoint(measurement, tags, fields, start.Add(time.Duration(i)*time.Microsecond)))
		}

		summary := map[string]interface{}{
			"status": string(r.Status()),
			"failed": r.Times.Failures(),
		}
		if stats, err := r.ComputeStats(); err == nil {
			summary["mean_ms"] = float64(stats.Mean) / float64(time.Millisecond)
			summary["min_ms"] = float64(stats.Min) / float64(time.Millisecond)
			summary["max_ms"] = float64(stats.Max) / float64(time.Millisecond)
		}
		points = append(points, influxdb2.NewPoint(measurement+"_summary", tags, summary, start))
	}
	return points
}
