package schema

import ocispec "github.com/opencontainers/image-spec/specs-go/v1"

// ContainerID identifies a container known to the engine.
type ContainerID string

// SessionID identifies the remote side of a terminal stream: the container
// id for attach sessions, the exec id for exec sessions.
type SessionID string

// ContainerStatus is the engine-reported state string of a container.
type ContainerStatus string

// StatusRunning is the only status a terminal will connect to.
const StatusRunning ContainerStatus = "running"

// ContainerInfo is the subset of a container inspect result the console needs.
type ContainerInfo struct {
	ID     ContainerID
	Name   string
	Status ContainerStatus
	TTY    bool
	Config ocispec.ImageConfig
}

// Running reports whether the container is in the running state.
func (c ContainerInfo) Running() bool {
	return c.Status == StatusRunning
}

// ImageSummary is a local image as listed by the engine.
type ImageSummary struct {
	ID       string   `json:"Id"`
	Names    []string `json:"Names"`
	RepoTags []string `json:"RepoTags"`
}

// HasName reports whether name is one of the image's names or repo tags.
func (i ImageSummary) HasName(name string) bool {
	for _, n := range i.Names {
		if n == name {
			return true
		}
	}
	for _, t := range i.RepoTags {
		if t == name {
			return true
		}
	}
	return false
}

// ExecCreateResponse is returned when an exec instance is created.
type ExecCreateResponse struct {
	ID string `json:"Id"`
}
