// Package searchbench compares the response times of search
// endpoints. Each endpoint is sampled with a run of sequential
// requests, one after another, and the average latency of every
// endpoint is reported against the first one.
package searchbench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sommelier/searchbench/sample/http"
	"github.com/sommelier/searchbench/types"
)

const (
	errUnknownSamplerType  = "unknown sampler type: %T"
	errUnknownStorageType  = "unknown storage type: %T"
	errUnknownNotifierType = "unknown notifier type: %T"
	errUnknownExporterType = "unknown exporter type: %T"
)

// Defaults for the comparison of the semantic and LLM search endpoints.
const (
	DefaultBaseURL        = "http://localhost:4000"
	DefaultQuery          = "스테이크와 어울리는 레드 와인"
	DefaultLimit          = 3
	DefaultAttempts       = 5
	DefaultAttemptSpacing = time.Second
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// Bench compares the latency of search endpoints.
type Bench struct {
	// Samplers are run in order. The first one is the
	// baseline every other endpoint is compared with.
	Samplers []Sampler

	// Storage is the storage mechanism for saving the
	// results of runs. Required if calling ReportAndStore().
	Storage Storage

	// Notifiers are told about endpoints that were down
	// or degraded after a stored run.
	Notifiers []Notifier

	// Exporters receive the results of a stored run.
	Exporters []Exporter

	// Out receives progress and the summary. Default is
	// os.Stdout.
	Out io.Writer

	// Timestamp is the timestamp to force for all results.
	Timestamp time.Time
}

// DefaultSampler returns the sampler settings shared by both
// default endpoints: the default payload, five attempts spaced
// by one second and a sixty second timeout per request.
func DefaultSampler() http.Sampler {
	return http.Sampler{
		Payload:        types.Payload{Query: DefaultQuery, Limit: DefaultLimit},
		Attempts:       DefaultAttempts,
		AttemptSpacing: DefaultAttemptSpacing,
		Timeout:        http.DefaultTimeout,
	}
}

// DefaultBench compares the semantic (RAG) search endpoint of
// baseURL with its LLM search endpoint. Both samplers copy
// their settings from tmpl.
func DefaultBench(baseURL string, tmpl http.Sampler) Bench {
	base := strings.TrimRight(baseURL, "/")

	semantic := tmpl
	semantic.Name = "Semantic (RAG)"
	semantic.Label = "RAG"
	semantic.URL = base + "/api/search/semantic"

	llm := tmpl
	llm.Name = "Gemini (LLM)"
	llm.Label = "Gemini"
	llm.URL = base + "/api/search/llm"

	return Bench{Samplers: []Sampler{semantic, llm}}
}

func (b Bench) out() io.Writer {
	if b.Out == nil {
		return os.Stdout
	}
	return b.Out
}

// Run samples every endpoint in turn and returns one result per
// sampler. Failed requests are part of the results; an error is
// only returned for a misconfiguration or if ctx is done.
func (b Bench) Run(ctx context.Context) ([]types.Result, error) {
	if len(b.Samplers) < 2 {
		return nil, fmt.Errorf("need at least two samplers to compare, have %d", len(b.Samplers))
	}

	out := b.out()
	fmt.Fprintln(out, heavyRule)
	fmt.Fprintln(out, "API Performance Comparison Test")
	fmt.Fprintln(out, heavyRule)
	fmt.Fprintln(out)

	results := make([]types.Result, 0, len(b.Samplers))
	for _, sampler := range b.Samplers {
		fmt.Fprintf(out, "Testing %s\n", sampler.Heading())
		fmt.Fprintln(out, lightRule)

		result, err := sampler.Sample(ctx, out)
		if err != nil {
			return results, fmt.Errorf("%s: %w", sampler.Heading(), err)
		}
		fmt.Fprintln(out)

		logrus.WithFields(logrus.Fields{
			"endpoint": result.Endpoint,
			"status":   result.Status(),
			"failed":   result.Times.Failures(),
		}).Info("sampled endpoint")
		results = append(results, result)
	}

	if !b.Timestamp.IsZero() {
		for i := range results {
			results[i].Timestamp = b.Timestamp.UTC().UnixNano()
		}
	}

	return results, nil
}

// Compare compares every result after the first with the first.
// It fails if any endpoint has no successful sample.
func (b Bench) Compare(results []types.Result) ([]types.Comparison, error) {
	if len(results) < 2 {
		return nil, fmt.Errorf("need at least two results to compare, have %d", len(results))
	}
	comparisons := make([]types.Comparison, 0, len(results)-1)
	for _, candidate := range results[1:] {
		c, err := types.Compare(results[0], candidate)
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, nil
}

// Report runs the comparison and prints the summary. If an
// endpoint had no successful sample, the error is returned and
// no summary is printed.
func (b Bench) Report(ctx context.Context) error {
	results, err := b.Run(ctx)
	if err != nil {
		return err
	}
	return b.summarize(results)
}

// ReportAndStore runs the comparison, prints the summary and
// hands the results to the configured storage, notifiers and
// exporters. Results are delivered even when the comparison
// itself fails, so an endpoint that is entirely down is still
// stored and notified about; the comparison error is returned
// along with any delivery errors.
func (b Bench) ReportAndStore(ctx context.Context) error {
	if b.Storage == nil {
		return fmt.Errorf("no storage mechanism defined")
	}
	results, err := b.Run(ctx)
	if err != nil {
		return err
	}
	errs := types.Errors{b.summarize(results)}
	errs = append(errs, b.deliver(results)...)
	return errs.Err()
}

// ReportEvery calls ReportAndStore every interval until ctx is
// done. Runs never overlap; a run that takes longer than the
// interval delays the next one. Errors are logged.
func (b Bench) ReportEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.ReportAndStore(ctx); err != nil {
				logrus.WithError(err).Error("scheduled run failed")
			}
		}
	}
}

func (b Bench) summarize(results []types.Result) error {
	comparisons, err := b.Compare(results)
	if err != nil {
		return err
	}

	out := b.out()
	fmt.Fprintln(out, heavyRule)
	fmt.Fprintln(out, "COMPARISON SUMMARY")
	fmt.Fprintln(out, heavyRule)

	stats := []types.Stats{comparisons[0].BaselineStats}
	for _, c := range comparisons {
		stats = append(stats, c.CandidateStats)
	}
	for i, r := range results {
		fmt.Fprintf(out, "%-24s %s\n", r.Title+" Average:", types.FormatSeconds(stats[i].Mean))
		fmt.Fprintf(out, "  Min: %s\n", types.FormatSeconds(stats[i].Min))
		fmt.Fprintf(out, "  Max: %s\n", types.FormatSeconds(stats[i].Max))
		fmt.Fprintln(out)
	}
	for _, c := range comparisons {
		fmt.Fprintf(out, "Speed Difference: %s\n", c.Verdict())
	}
	fmt.Fprintln(out, heavyRule)
	return nil
}

func (b Bench) deliver(results []types.Result) types.Errors {
	var errs types.Errors
	if b.Storage != nil {
		if err := b.Storage.Store(results); err != nil {
			errs = append(errs, fmt.Errorf("%s storage: %w", b.Storage.Type(), err))
		} else if m, ok := b.Storage.(Maintainer); ok {
			if err := m.Maintain(); err != nil {
				errs = append(errs, fmt.Errorf("%s storage maintenance: %w", b.Storage.Type(), err))
			}
		}
	}
	for _, n := range b.Notifiers {
		if err := n.Notify(results); err != nil {
			errs = append(errs, fmt.Errorf("%s notifier: %w", n.Type(), err))
		}
	}
	for _, e := range b.Exporters {
		if err := e.Export(results); err != nil {
			errs = append(errs, fmt.Errorf("%s exporter: %w", e.Type(), err))
		}
	}
	return errs
}

// UnmarshalJSON decodes a Bench configuration. Every sampler,
// the storage, every notifier and every exporter carries a
// "type" key naming its package.
func (b *Bench) UnmarshalJSON(data []byte) error {
	raw := struct {
		Samplers  []json.RawMessage `json:"samplers"`
		Storage   json.RawMessage   `json:"storage"`
		Notifiers []json.RawMessage `json:"notifiers"`
		Exporters []json.RawMessage `json:"exporters"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, config := range raw.Samplers {
		typeName, err := typeOf(config)
		if err != nil {
			return err
		}
		sampler, err := samplerDecode(typeName, config)
		if err != nil {
			return err
		}
		b.Samplers = append(b.Samplers, sampler)
	}

	if len(raw.Storage) > 0 && !bytes.Equal(raw.Storage, []byte("null")) {
		typeName, err := typeOf(raw.Storage)
		if err != nil {
			return err
		}
		storage, err := storageDecode(typeName, raw.Storage)
		if err != nil {
			return err
		}
		b.Storage = storage
	}

	for _, config := range raw.Notifiers {
		typeName, err := typeOf(config)
		if err != nil {
			return err
		}
		notifier, err := notifierDecode(typeName, config)
		if err != nil {
			return err
		}
		b.Notifiers = append(b.Notifiers, notifier)
	}

	for _, config := range raw.Exporters {
		typeName, err := typeOf(config)
		if err != nil {
			return err
		}
		exporter, err := exporterDecode(typeName, config)
		if err != nil {
			return err
		}
		b.Exporters = append(b.Exporters, exporter)
	}

	return nil
}

// MarshalJSON encodes b the way UnmarshalJSON expects it.
func (b Bench) MarshalJSON() ([]byte, error) {
	raw := struct {
		Samplers  []json.RawMessage `json:"samplers"`
		Storage   json.RawMessage   `json:"storage,omitempty"`
		Notifiers []json.RawMessage `json:"notifiers,omitempty"`
		Exporters []json.RawMessage `json:"exporters,omitempty"`
	}{}

	for _, s := range b.Samplers {
		typeName, err := samplerType(s)
		if err != nil {
			return nil, err
		}
		config, err := withType(typeName, s)
		if err != nil {
			return nil, err
		}
		raw.Samplers = append(raw.Samplers, config)
	}

	if b.Storage != nil {
		typeName, err := storageType(b.Storage)
		if err != nil {
			return nil, err
		}
		raw.Storage, err = withType(typeName, b.Storage)
		if err != nil {
			return nil, err
		}
	}

	for _, n := range b.Notifiers {
		typeName, err := notifierType(n)
		if err != nil {
			return nil, err
		}
		config, err := withType(typeName, n)
		if err != nil {
			return nil, err
		}
		raw.Notifiers = append(raw.Notifiers, config)
	}

	for _, e := range b.Exporters {
		typeName, err := exporterType(e)
		if err != nil {
			return nil, err
		}
		config, err := withType(typeName, e)
		if err != nil {
			return nil, err
		}
		raw.Exporters = append(raw.Exporters, config)
	}

	return json.Marshal(raw)
}

func typeOf(config json.RawMessage) (string, error) {
	var t struct {
		Type string `json:"type"`
	}
	err := json.Unmarshal(config, &t)
	return t.Type, err
}

// withType marshals v and injects the "type" key as its first field.
func withType(typeName string, v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(b, []byte("null")) {
		return nil, fmt.Errorf("cannot encode nil %s config", typeName)
	}
	if len(b) < 2 || b[0] != '{' {
		return nil, fmt.Errorf("%s config is not a JSON object: %s", typeName, b)
	}
	prefix := fmt.Sprintf(`{"type":%q`, typeName)
	if bytes.Equal(b, []byte("{}")) {
		return json.RawMessage(prefix + "}"), nil
	}
	return json.RawMessage(prefix + "," + string(b[1:])), nil
}
