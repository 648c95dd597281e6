// Package commit turns free-form commit input into engine commit requests.
package commit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"pkt.systems/ctrconsole/schema"
)

// DefaultTag is used when no tag is given.
const DefaultTag = "latest"

// NormalizeName composes name:tag and qualifies it with localhost/ when it
// carries no registry or namespace.
func NormalizeName(name, tag string) string {
	if tag == "" {
		tag = DefaultTag
	}
	full := name + ":" + tag
	if !strings.Contains(full, "/") {
		full = "localhost/" + full
	}
	return full
}

// IsValidation reports whether err is a local input error the user can fix
// (as opposed to an engine or transport failure).
func IsValidation(err error) bool {
	return errors.Is(err, schema.ErrNameRequired) || errors.Is(err, schema.ErrNameNotUnique) || errors.Is(err, schema.ErrInvalidRequest)
}

// Build validates opts and produces the commit request for container.
//
// force skips the uniqueness check against localImages; it never skips the
// required-name check.
func Build(container schema.ContainerID, opts schema.CommitOptions, localImages []schema.ImageSummary, force bool) (schema.CommitRequest, error) {
	if err := requireName(opts); err != nil {
		return schema.CommitRequest{}, err
	}
	if !force {
		full := NormalizeName(opts.ImageName, opts.Tag)
		for _, img := range localImages {
			if img.HasName(full) {
				return schema.CommitRequest{}, fmt.Errorf("%w: %s", schema.ErrNameNotUnique, full)
			}
		}
	}

	changes := []string{}
	if cmd := strings.TrimSpace(opts.Command); cmd != "" {
		directive, err := CmdDirective(cmd)
		if err != nil {
			return schema.CommitRequest{}, err
		}
		changes = append(changes, directive)
	}

	return schema.CommitRequest{
		Container: container,
		Repo:      opts.ImageName,
		Tag:       opts.Tag,
		Author:    opts.Author,
		Pause:     opts.Pause,
		Format:    schema.CommitFormat,
		Changes:   changes,
	}, nil
}

func requireName(opts schema.CommitOptions) error {
	if strings.TrimSpace(opts.ImageName) == "" {
		return schema.ErrNameRequired
	}
	return nil
}

// CmdDirective splits command with shell word rules and renders it as an
// exec-form CMD directive, e.g. `CMD ["sh", "-c", "echo hi"]`.
func CmdDirective(command string) (string, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return "", fmt.Errorf("%w: command: %v", schema.ErrInvalidRequest, err)
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		q, err := quote(w)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return "CMD [" + strings.Join(quoted, ", ") + "]", nil
}

// quote renders word as a JSON string literal without HTML escaping so the
// directive stays readable.
func quote(word string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(word); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// QuoteCmdline renders argv as a single shell-quoted command line, the form
// the command input is pre-filled with.
func QuoteCmdline(argv []string) string {
	return shellquote.Join(argv...)
}
