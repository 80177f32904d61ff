package config

import (
	"os"
	"sync"
)

var (
	inContainerOnce   sync.Once
	inContainerResult bool
)

// IsRunningInDocker reports whether the process runs inside a container.
// PCB_LOOKUP_IN_DOCKER=true forces it for images that do not ship /.dockerenv.
func IsRunningInDocker() bool {
	inContainerOnce.Do(func() {
		if os.Getenv("PCB_LOOKUP_IN_DOCKER") == "true" {
			inContainerResult = true
			return
		}
		_, err := os.Stat("/.dockerenv")
		inContainerResult = err == nil
	})
	return inContainerResult
}

// ResolveHostForDocker maps loopback database hosts to host.docker.internal when
// running in a container, so a database on the developer machine stays reachable.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1":
		return "host.docker.internal"
	}
	return host
}
