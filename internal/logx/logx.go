package logx

import (
	"context"

	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	containerKey contextKey = iota
)

// WithContainer annotates the logger with the container id if present.
func WithContainer(ctx context.Context, id schema.ContainerID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if id != "" {
		if current, ok := ctx.Value(containerKey).(schema.ContainerID); ok && current == id {
			return log
		}
		log = log.With("container", id)
	}
	return log
}

// WithSession annotates the logger with a terminal session id and its target.
func WithSession(log pslog.Logger, sessionID string, target schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	if target != "" {
		log = log.With("target", target)
	}
	return log
}

// ContextWithContainer stores the container marker on the context for log de-duplication.
func ContextWithContainer(ctx context.Context, id schema.ContainerID) context.Context {
	if ctx == nil || id == "" {
		return ctx
	}
	return context.WithValue(ctx, containerKey, id)
}

// ContextWithContainerLogger attaches the logger and container marker to the context.
func ContextWithContainerLogger(ctx context.Context, log pslog.Logger, id schema.ContainerID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithContainer(ctx, id)
}
