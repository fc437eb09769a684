package scheduler

import "errors"

// ErrRunInProgress is returned when another ingestion run holds the lock.
var ErrRunInProgress = errors.New("ingestion already running")
