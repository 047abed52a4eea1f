package fs

import (
	"fmt"

	"github.com/paneprobe/paneprobe/types"
)

const IndexName = "index.json"

// FilenameFormatString is the format string used
// by GenerateFilename to create a filename.
const FilenameFormatString = "%d-run.json"

// GenerateFilename returns a filename that sorts by run timestamp on
// storage providers that rely on the filename for retrieval. It
// returns a string pointer to be used by the AWS SDK.
func GenerateFilename() *string {
	s := fmt.Sprintf(FilenameFormatString, types.Timestamp())
	return &s
}
