package httpapi

import (
	"time"

	"pkt.systems/ctrconsole/internal/terminal"
)

// Config defines HTTP API settings.
type Config struct {
	Addr     string
	BasePath string
	// Layout converts the pixel width reported by browsers into columns.
	Layout         terminal.Layout
	FollowInterval time.Duration
}
