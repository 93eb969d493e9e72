package images

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// BuildFlags holds the command line options of "images build"
type BuildFlags struct {
	NoCache       bool
	NoInlineCache bool
	NoBuildkit    bool
	NoCacheFrom   bool
	BuildArgs     []string
	AddHosts      []string
	Target        string
}

// BuildRequest is one build invocation for a filter
type BuildRequest struct {
	Filter string
	// Args are appended to every build command
	Args []string
	// Env is added to the environment of the backend process only
	Env []string
	// CacheFrom makes dev images use the base image tags as cache
	CacheFrom bool
}

// CommandArgs returns the build arguments shared by every image
func (f BuildFlags) CommandArgs() []string {
	var args []string
	if f.NoCache {
		args = append(args, "--no-cache")
	} else if !f.NoInlineCache {
		args = append(args, "--build-arg", "BUILDKIT_INLINE_CACHE=1")
	}
	for _, arg := range f.BuildArgs {
		args = append(args, "--build-arg", arg)
	}
	for _, host := range f.AddHosts {
		args = append(args, "--add-host", host)
	}
	if f.Target != "" {
		args = append(args, "--target", f.Target)
	}
	return args
}

// Env returns the environment overrides for the backend process
func (f BuildFlags) Env() []string {
	if f.NoBuildkit {
		return nil
	}
	return []string{"DOCKER_BUILDKIT=1"}
}

// DevArgs returns the extra arguments of dev image builds
func (f BuildFlags) DevArgs(uid int, baseTags []string) []string {
	return f.Request("").DevArgs(uid, baseTags)
}

// Validate checks the shape of build args and extra hosts
func (f BuildFlags) Validate() error {
	for _, arg := range f.BuildArgs {
		key, _, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid build arg %q: expected KEY=VALUE", arg)
		}
	}
	for _, host := range f.AddHosts {
		name, ip, ok := strings.Cut(host, ":")
		if !ok || name == "" || ip == "" {
			return fmt.Errorf("invalid host %q: expected HOST:IP", host)
		}
		if ip != "host-gateway" && net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid host %q: %q is not an IP address", host, ip)
		}
	}
	return nil
}

// Request returns the build request of filter for these flags
func (f BuildFlags) Request(filter string) BuildRequest {
	return BuildRequest{
		Filter:    filter,
		Args:      f.CommandArgs(),
		Env:       f.Env(),
		CacheFrom: !f.NoCacheFrom,
	}
}

// DevArgs returns the arguments dev builds get before r.Args
func (r BuildRequest) DevArgs(uid int, baseTags []string) []string {
	args := []string{"--build-arg", fmt.Sprintf("USERID=%d", uid)}
	if r.CacheFrom {
		for _, tag := range baseTags {
			args = append(args, "--cache-from", tag)
		}
	}
	return args
}

// CurrentUserID returns the uid dev images are built for, 0 where the
// platform has no uids.
func CurrentUserID() int {
	uid := os.Getuid()
	if uid < 0 {
		return 0
	}
	return uid
}
