package fs

import (
	"fmt"

	"github.com/sommelier/searchbench/types"
)

// IndexName is the file that maps run files to their timestamps.
const IndexName = "index.json"

// FilenameFormatString is the format string used
// by GenerateFilename to create a filename.
const FilenameFormatString = "%d-bench.json"

// GenerateFilename returns a filename that sorts by the
// time of the run. It returns a string pointer to be used
// by the AWS SDK.
func GenerateFilename() *string {
	s := fmt.Sprintf(FilenameFormatString, types.Timestamp())
	return &s
}
