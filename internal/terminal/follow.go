package terminal

import (
	"context"
	"time"

	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/schema"
)

// Inspector looks up a container's current state.
type Inspector interface {
	InspectContainer(ctx context.Context, id schema.ContainerID) (schema.ContainerInfo, error)
}

// PropsFor converts an inspect result into widget props with an unchanged
// width.
func PropsFor(info schema.ContainerInfo) Props {
	tty := info.TTY
	return Props{
		ContainerID: info.ID,
		Status:      info.Status,
		TTY:         &tty,
	}
}

// Follow polls the container every interval and feeds status changes to w,
// which reconnects when the container starts again. It returns when ctx is
// done or the widget is unmounted.
func Follow(ctx context.Context, insp Inspector, w *Widget, id schema.ContainerID, interval time.Duration) {
	log := logx.WithContainer(ctx, id)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var last schema.ContainerStatus
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Done():
			return
		case <-ticker.C:
		}
		info, err := insp.InspectContainer(ctx, id)
		if err != nil {
			log.Debug("terminal follow inspect failed", "err", err)
			continue
		}
		if info.Status != last {
			log.Debug("terminal follow status", "status", info.Status)
			last = info.Status
		}
		w.Update(PropsFor(info))
	}
}
