//go:build !sql
// +build !sql

package sql

import (
	"encoding/json"
	"errors"

	"github.com/paneprobe/paneprobe/types"
)

// Storage is the disabled placeholder built without the sql tag, so
// default builds stay CGO-free.
type Storage struct{}

var errStoreDisabled = errors.New("sql report store is disabled; rebuild with -tags sql")

// New creates a new Storage instance based on json config
func New(_ json.RawMessage) (Storage, error) {
	return Storage{}, errStoreDisabled
}

// Type returns the storage driver package name
func (Storage) Type() string {
	return Type
}

func (Storage) Store(*types.RunReport) error {
	return errStoreDisabled
}
