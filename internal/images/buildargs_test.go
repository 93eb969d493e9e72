package images

import (
	"testing"

	"github.com/tnk4on/edxctl/internal/testutil"
)

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name  string
		flags BuildFlags
		want  []string
	}{
		{
			name: "defaults use inline cache",
			want: []string{"--build-arg", "BUILDKIT_INLINE_CACHE=1"},
		},
		{
			name:  "no cache wins over inline cache",
			flags: BuildFlags{NoCache: true},
			want:  []string{"--no-cache"},
		},
		{
			name:  "no cache with no inline cache",
			flags: BuildFlags{NoCache: true, NoInlineCache: true},
			want:  []string{"--no-cache"},
		},
		{
			name:  "no inline cache",
			flags: BuildFlags{NoInlineCache: true},
			want:  nil,
		},
		{
			name: "everything",
			flags: BuildFlags{
				BuildArgs: []string{"A=1", "B=2"},
				AddHosts:  []string{"lms.local:127.0.0.1"},
				Target:    "production",
			},
			want: []string{
				"--build-arg", "BUILDKIT_INLINE_CACHE=1",
				"--build-arg", "A=1",
				"--build-arg", "B=2",
				"--add-host", "lms.local:127.0.0.1",
				"--target", "production",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStrings(t, tt.flags.CommandArgs(), tt.want)
		})
	}
}

func TestDevArgs(t *testing.T) {
	base := []string{"t1", "t2"}

	got := BuildFlags{}.DevArgs(1000, base)
	testutil.AssertStrings(t, got, []string{
		"--build-arg", "USERID=1000",
		"--cache-from", "t1",
		"--cache-from", "t2",
	})

	got = BuildFlags{NoCacheFrom: true}.DevArgs(0, base)
	testutil.AssertStrings(t, got, []string{"--build-arg", "USERID=0"})
}

func TestBuildFlagsEnv(t *testing.T) {
	testutil.AssertStrings(t, BuildFlags{}.Env(), []string{"DOCKER_BUILDKIT=1"})
	if env := (BuildFlags{NoBuildkit: true}).Env(); len(env) != 0 {
		t.Errorf("Env() with NoBuildkit = %q, want none", env)
	}
}

func TestBuildFlagsValidate(t *testing.T) {
	tests := []struct {
		name    string
		flags   BuildFlags
		wantErr bool
	}{
		{name: "empty"},
		{name: "valid", flags: BuildFlags{BuildArgs: []string{"A=1", "B="}, AddHosts: []string{"h:10.0.0.1", "gw:host-gateway", "v6:::1"}}},
		{name: "arg without value", flags: BuildFlags{BuildArgs: []string{"A"}}, wantErr: true},
		{name: "arg without key", flags: BuildFlags{BuildArgs: []string{"=1"}}, wantErr: true},
		{name: "host without ip", flags: BuildFlags{AddHosts: []string{"h"}}, wantErr: true},
		{name: "host with bad ip", flags: BuildFlags{AddHosts: []string{"h:nope"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flags.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequest(t *testing.T) {
	req := BuildFlags{NoCacheFrom: true, Target: "dev"}.Request("openedx")
	if req.Filter != "openedx" || req.CacheFrom {
		t.Errorf("Request() = %+v", req)
	}
	testutil.AssertStrings(t, req.Args, []string{"--build-arg", "BUILDKIT_INLINE_CACHE=1", "--target", "dev"})
	testutil.AssertStrings(t, req.Env, []string{"DOCKER_BUILDKIT=1"})
}
