package revision

import "errors"

var (
	ErrDuplicateRevision = errors.New("duplicate revision id")
	ErrUnknownParent     = errors.New("revision references unknown parent")
	ErrUnknownRevision   = errors.New("unknown revision")
	ErrCycle             = errors.New("revision graph contains a cycle")
)
