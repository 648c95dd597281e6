package schema

// CommitFormat is the image format requested for commits.
const CommitFormat = "docker"

// CommitOptions is the free-form input collected for a commit.
type CommitOptions struct {
	ImageName string `json:"image_name"`
	Tag       string `json:"tag,omitempty"`
	Author    string `json:"author,omitempty"`
	Command   string `json:"command,omitempty"`
	Pause     bool   `json:"pause,omitempty"`
}

// CommitRequest is a fully built commit call. It is built once per submit
// attempt and not modified afterwards.
type CommitRequest struct {
	Container ContainerID
	Repo      string
	Tag       string
	Author    string
	Pause     bool
	Format    string
	Changes   []string
}
