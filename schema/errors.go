package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNameRequired indicates a commit was submitted without an image name.
	ErrNameRequired = errors.New("image name is required")
	// ErrNameNotUnique indicates the normalized image name already exists locally.
	ErrNameNotUnique = errors.New("image name is not unique")
	// ErrBusy indicates an operation of the same kind is still running.
	ErrBusy = errors.New("operation already in progress")
	// ErrCommitFailed indicates the engine rejected or failed a commit.
	ErrCommitFailed = errors.New("commit failed")
	// ErrConnect indicates a terminal stream could not be opened.
	ErrConnect = errors.New("error occurred while connecting console")
	// ErrResize indicates the remote side could not be told about a new size.
	ErrResize = errors.New("resize failed")
	// ErrNotConnected indicates there is no open terminal stream.
	ErrNotConnected = errors.New("not connected")
	// ErrChannelClosed indicates a send on a closed stream channel.
	ErrChannelClosed = errors.New("channel closed")
)
