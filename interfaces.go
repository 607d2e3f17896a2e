package searchbench

import (
	"context"
	"io"

	"github.com/sommelier/searchbench/types"
)

// Sampler can sample an endpoint into a types.Result,
// writing progress lines to progress as it goes.
type Sampler interface {
	Type() string
	// Heading names the endpoint in the section header
	// printed before sampling starts.
	Heading() string
	Sample(ctx context.Context, progress io.Writer) (types.Result, error)
}

// Storage can store results.
type Storage interface {
	Type() string
	Store([]types.Result) error
}

// StorageReader can read results from the Storage.
type StorageReader interface {
	// Fetch returns the contents of a run file.
	Fetch(name string) ([]types.Result, error)
	// GetIndex returns the storage index, as a map where keys are run
	// filenames and values are the associated run timestamps.
	GetIndex() (map[string]int64, error)
}

// Maintainer can maintain a store of results by
// deleting old run files that are no longer
// needed or performing other required tasks.
type Maintainer interface {
	Maintain() error
}

// Notifier can notify someone about endpoints that
// were down or degraded during a run.
type Notifier interface {
	Type() string
	Notify([]types.Result) error
}

// Exporter is a service to send
// Result data for additional processing.
type Exporter interface {
	Type() string
	Export([]types.Result) error
}
