package cache

import (
	"errors"
	"fmt"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// ErrOfflineNoCache: offline and nothing within the degraded window.
var ErrOfflineNoCache = errors.New("cache: offline and no usable cached data")

// ErrParse marks a stored payload that could not be decoded (schema drift or
// corruption). Stores treat it as a miss.
var ErrParse = errors.New("cache: payload parse failure")

// RemoteFetchError means the remote was reachable in principle (online) but
// the fetch function failed.
type RemoteFetchError struct {
	Domain model.Domain
	Key    string
	Err    error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("refresh %s/%s failed: %v", e.Domain, e.Key, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// IsRemoteFetchError checks if err (or anything it wraps) is a RemoteFetchError.
func IsRemoteFetchError(err error) bool {
	var rfe *RemoteFetchError
	return errors.As(err, &rfe)
}

// StorageError means the local store failed. It is fatal for the operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError checks if err (or anything it wraps) is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
