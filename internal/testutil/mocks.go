package testutil

import (
	"context"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/docker"
)

// MockDockerClient is a mock implementation of the docker backend for testing.
// Tags are computed with docker.GetTag unless GetTagFunc is set.
type MockDockerClient struct {
	// Function hooks for mocking
	BuildFunc  func(ctx context.Context, opts docker.BuildOptions) error
	PullFunc   func(ctx context.Context, tag string) error
	PushFunc   func(ctx context.Context, tag string) error
	GetTagFunc func(cfg *config.Config, image string) (string, error)

	// Call tracking
	Calls []MockCall
}

// MockCall records a mock function call
type MockCall struct {
	Method string
	Args   []interface{}
}

func (m *MockDockerClient) recordCall(method string, args ...interface{}) {
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// Build mocks docker build
func (m *MockDockerClient) Build(ctx context.Context, opts docker.BuildOptions) error {
	m.recordCall("Build", opts)
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, opts)
	}
	return nil
}

// Pull mocks docker pull
func (m *MockDockerClient) Pull(ctx context.Context, tag string) error {
	m.recordCall("Pull", tag)
	if m.PullFunc != nil {
		return m.PullFunc(ctx, tag)
	}
	return nil
}

// Push mocks docker push
func (m *MockDockerClient) Push(ctx context.Context, tag string) error {
	m.recordCall("Push", tag)
	if m.PushFunc != nil {
		return m.PushFunc(ctx, tag)
	}
	return nil
}

// GetTag is not recorded in Calls; only backend actions are.
func (m *MockDockerClient) GetTag(cfg *config.Config, image string) (string, error) {
	if m.GetTagFunc != nil {
		return m.GetTagFunc(cfg, image)
	}
	return docker.GetTag(cfg, image)
}

// Methods returns the recorded method names in call order
func (m *MockDockerClient) Methods() []string {
	methods := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		methods = append(methods, c.Method)
	}
	return methods
}

// Tags returns the image tag of every recorded call in call order
func (m *MockDockerClient) Tags() []string {
	tags := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		switch arg := c.Args[0].(type) {
		case docker.BuildOptions:
			tags = append(tags, arg.Tag)
		case string:
			tags = append(tags, arg)
		}
	}
	return tags
}

// Builds returns the options of every recorded build in call order
func (m *MockDockerClient) Builds() []docker.BuildOptions {
	var builds []docker.BuildOptions
	for _, c := range m.Calls {
		if opts, ok := c.Args[0].(docker.BuildOptions); ok {
			builds = append(builds, opts)
		}
	}
	return builds
}
