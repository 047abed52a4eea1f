package paneprobe

import (
	"encoding/json"
	"fmt"

	"github.com/paneprobe/paneprobe/storage/fs"
	"github.com/paneprobe/paneprobe/storage/github"
	"github.com/paneprobe/paneprobe/storage/s3"
	"github.com/paneprobe/paneprobe/storage/sql"
)

func storageDecode(typeName string, config json.RawMessage) (Storage, error) {
	switch typeName {
	case fs.Type:
		return fs.New(config)
	case sql.Type:
		return sql.New(config)
	case s3.Type:
		return s3.New(config)
	case github.Type:
		return github.New(config)
	default:
		return nil, fmt.Errorf(errUnknownStorageType, typeName)
	}
}
