package errors

import (
	"fmt"
)

var (
	ErrInvalidArgument       = fmt.Errorf("memtide: invalid argument")
	ErrInvalidEventKind      = fmt.Errorf("memtide: invalid event kind")
	ErrNotFound              = fmt.Errorf("memtide: not found")
	ErrIOFailure             = fmt.Errorf("memtide: io failure")
	ErrEmptyCorpus           = fmt.Errorf("memtide: empty corpus")
	ErrGenerationUnavailable = fmt.Errorf("memtide: generation unavailable")
	ErrGenerationTimeout     = fmt.Errorf("memtide: generation timeout")
)
