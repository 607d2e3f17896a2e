package appinsights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "appinsights"

// DefaultTestLocation is the run location reported when none is set.
const DefaultTestLocation = "searchbench"

// Exporter sends one availability telemetry item per sampled
// endpoint to Application Insights.
type Exporter struct {
	// InstrumentationKey is a GUID used to send trackAvailability()
	// telemetry to Application Insights
	InstrumentationKey string `json:"instrumentation_key"`

	// TestLocation identifies the test location sent
	// in Application Insights trackAvailability() events
	TestLocation string `json:"test_location,omitempty"`

	// EndpointURL overrides the Application Insights ingestion endpoint.
	EndpointURL string `json:"endpoint_url,omitempty"`

	// Tags will be applied to all telemetry items
	Tags map[string]string `json:"tags,omitempty"`

	// Timeout bounds submitting queued telemetry on Export.
	// Default is 10 seconds.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// New creates a new Exporter instance based on json config
func New(config json.RawMessage) (Exporter, error) {
	var exporter Exporter
	err := json.Unmarshal(config, &exporter)
	if err != nil {
		return exporter, err
	}
	if exporter.InstrumentationKey == "" {
		return exporter, errors.New("missing instrumentation_key")
	}
	if exporter.TestLocation == "" {
		exporter.TestLocation = DefaultTestLocation
	}
	return exporter, nil
}

// Type returns the exporter package name
func (Exporter) Type() string {
	return Type
}

func (c Exporter) client() appinsights.TelemetryClient {
	config := appinsights.NewTelemetryConfiguration(c.InstrumentationKey)
	if c.EndpointURL != "" {
		config.EndpointUrl = c.EndpointURL
	}
	client := appinsights.NewTelemetryClientFromConfig(config)
	for k, v := range c.Tags {
		client.Context().CommonProperties[k] = v
	}
	return client
}

// Export sends results to the configured Application Insights
// instance. Every call uses its own client, which is closed once
// the queued telemetry is submitted.
func (c Exporter) Export(results []types.Result) error {
	client := c.client()
	for _, result := range results {
		client.Track(c.availability(result))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case <-client.Channel().Close(timeout):
		return nil
	case <-time.After(3 * timeout):
		return fmt.Errorf("failed to submit telemetry after %s", 3*timeout)
	}
}

// availability converts a result; its duration is the mean RTT
// of the successful samples, or zero if there were none.
func (c Exporter) availability(result types.Result) *appinsights.AvailabilityTelemetry {
	var mean time.Duration
	stats, err := result.ComputeStats()
	if err == nil {
		mean = stats.Mean
	}

	availability := appinsights.NewAvailabilityTelemetry(result.Title, mean, result.Healthy)
	availability.Id = uuid.New().String()
	availability.RunLocation = c.TestLocation
	availability.Message = "Passed"
	if result.Notice != "" {
		availability.Message = result.Notice
	}
	if result.Timestamp != 0 {
		availability.Timestamp = time.Unix(0, result.Timestamp).UTC()
	}

	availability.Properties["endpoint"] = result.Endpoint
	availability.Properties["status"] = string(result.Status())
	availability.Properties["attempts"] = strconv.Itoa(len(result.Times))
	availability.Properties["failed"] = strconv.Itoa(result.Times.Failures())
	if err == nil {
		availability.Properties["min"] = types.FormatSeconds(stats.Min)
		availability.Properties["max"] = types.FormatSeconds(stats.Max)
	}
	return availability
}
