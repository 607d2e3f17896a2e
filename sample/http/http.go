package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sommelier/searchbench/types"
)

var errMissingURL = errors.New("missing endpoint_url")

// Type should match the package name
const Type = "http"

// DefaultTimeout bounds a single request when Sampler.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Sampler implements a Sampler that POSTs a JSON search
// payload to an HTTP endpoint and times each response.
type Sampler struct {
	// Name is the display name of the endpoint, used in
	// the comparison summary.
	Name string `json:"endpoint_name"`

	// Label is the short tag shown in the section header,
	// as in "Testing /api/search/semantic (RAG)".
	Label string `json:"label,omitempty"`

	// URL is the URL of the endpoint.
	URL string `json:"endpoint_url"`

	// Payload is posted as the JSON body of every request.
	Payload types.Payload `json:"payload"`

	// UpStatus is the HTTP status code a response must have to
	// count as a sample. If zero, any response counts; only
	// transport errors produce failure markers.
	UpStatus int `json:"up_status,omitempty"`

	// ThresholdRTT is the maximum mean round trip time to
	// allow before the endpoint is considered degraded.
	ThresholdRTT time.Duration `json:"threshold_rtt,omitempty"`

	// Attempts is how many requests to make. Default is 1.
	Attempts int `json:"attempts,omitempty"`

	// AttemptSpacing is how long to wait after each attempt,
	// including the last one unless SkipFinalSpacing is set.
	// By default, no waiting occurs.
	AttemptSpacing time.Duration `json:"attempt_spacing,omitempty"`

	// SkipFinalSpacing drops the wait after the final attempt.
	SkipFinalSpacing bool `json:"skip_final_spacing,omitempty"`

	// Timeout bounds each request, including reading the
	// response body. Default is DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Headers contains headers added to every request.
	Headers http.Header `json:"headers,omitempty"`

	// Client is the http.Client with which to make
	// requests. If not set, DefaultHTTPClient is used.
	Client *http.Client `json:"-"`
}

// New creates a new Sampler instance based on json config
func New(config json.RawMessage) (Sampler, error) {
	var sampler Sampler
	err := json.Unmarshal(config, &sampler)
	return sampler, err
}

// Type returns the sampler package name
func (Sampler) Type() string {
	return Type
}

// Heading returns the URL path of the endpoint followed by
// its label, like "/api/search/semantic (RAG)".
func (s Sampler) Heading() string {
	heading := s.URL
	if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
		heading = u.Path
	}
	if s.Label != "" {
		heading += " (" + s.Label + ")"
	}
	return heading
}

// Sample makes s.Attempts sequential requests and returns one
// sample per attempt, writing a progress line for each to progress.
// A failed request is recorded as a failure marker and does not
// stop the loop. An error is only returned for a configuration
// error or if ctx is done before all attempts were made.
func (s Sampler) Sample(ctx context.Context, progress io.Writer) (types.Result, error) {
	if s.Attempts < 1 {
		s.Attempts = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Client == nil {
		s.Client = DefaultHTTPClient
	}
	if progress == nil {
		progress = ioutil.Discard
	}

	result := types.NewResult()
	result.Title = s.Name
	result.Label = s.Label
	result.Endpoint = s.URL
	result.ThresholdRTT = s.ThresholdRTT

	if s.URL == "" {
		return result, errMissingURL
	}
	body, err := json.Marshal(s.Payload)
	if err != nil {
		return result, err
	}
	if _, err := s.newRequest(ctx, body); err != nil {
		return result, err
	}

	times, err := s.doSamples(ctx, body, progress)
	result.Times = times
	if err != nil {
		return result, err
	}

	return result.Conclude(), nil
}

func (s Sampler) doSamples(ctx context.Context, body []byte, progress io.Writer) (types.Samples, error) {
	log := logrus.WithField("endpoint", s.URL)
	times := make(types.Samples, 0, s.Attempts)

	for i := 0; i < s.Attempts; i++ {
		fmt.Fprintf(progress, "  Test %d/%d... ", i+1, s.Attempts)

		sample := s.doSample(ctx, body)
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(progress, "canceled")
			return times, err
		}
		times = append(times, sample)

		entry := log.WithField("attempt", i+1)
		if sample.Failed() {
			fmt.Fprintf(progress, "ERROR: %s\n", sample.Error)
			entry.WithField("error", sample.Error).Debug("sample failed")
		} else {
			fmt.Fprintln(progress, types.FormatSeconds(sample.RTT))
			entry.WithField("rtt", sample.RTT).Debug("sample")
		}

		if i == s.Attempts-1 && s.SkipFinalSpacing {
			break
		}
		if err := wait(ctx, s.AttemptSpacing); err != nil {
			return times, err
		}
	}
	return times, nil
}

// doSample performs one request. The RTT covers sending the
// request and reading the whole response body.
func (s Sampler) doSample(ctx context.Context, body []byte) types.Sample {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req, err := s.newRequest(ctx, body)
	if err != nil {
		return types.Sample{Error: err.Error()}
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		return types.Sample{Error: err.Error()}
	}
	defer resp.Body.Close()

	if _, err := io.Copy(ioutil.Discard, resp.Body); err != nil {
		return types.Sample{Error: fmt.Sprintf("reading response body: %v", err)}
	}
	rtt := time.Since(start)

	if s.UpStatus != 0 && resp.StatusCode != s.UpStatus {
		return types.Sample{Error: fmt.Sprintf("response status %s", resp.Status)}
	}
	return types.Sample{RTT: rtt}
}

func (s Sampler) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, header := range s.Headers {
		if strings.EqualFold(key, "host") {
			req.Host = header[0]
		} else {
			req.Header.Set(key, strings.Join(header, ", "))
		}
	}
	return req, nil
}

// wait blocks for d or until ctx is done. It may be replaced in tests.
var wait = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DefaultHTTPClient is used when no other http.Client is specified
// on a Sampler. Keep-alives are off so every sample pays for its
// own connection, like a fresh client per call.
var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 0,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   1,
		DisableKeepAlives:     true,
	},
}
