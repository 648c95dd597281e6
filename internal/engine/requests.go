package engine

import (
	"fmt"
	"net/url"
	"strings"

	"pkt.systems/ctrconsole/schema"
)

// AttachRequest returns the raw HTTP/1.0 request that upgrades a stream
// channel into an attach session on a container's TTY.
func AttachRequest(prefix string, id schema.ContainerID) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "POST %s/containers/%s/attach?stdin=true&stdout=true&stderr=true&stream=true HTTP/1.0\r\n",
		strings.TrimRight(prefix, "/"), url.PathEscape(string(id)))
	b.WriteString("Upgrade: tcp\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

// execStartBody is sent verbatim; Tty here only controls stream framing of
// the start call, the exec instance itself was created with a TTY.
const execStartBody = `{"Detach":false,"Tty":false}`

// ExecStartRequest returns the raw HTTP/1.0 request that starts an exec
// instance and streams its I/O over the channel.
func ExecStartRequest(prefix, execID string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "POST %s/exec/%s/start HTTP/1.0\r\n", strings.TrimRight(prefix, "/"), url.PathEscape(execID))
	b.WriteString("Content-Type: application/json; charset=utf-8\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(execStartBody))
	b.WriteString("\r\n")
	b.WriteString(execStartBody)
	return []byte(b.String())
}
