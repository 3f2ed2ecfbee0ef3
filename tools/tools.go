//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run through `go run` or installed with `go install`;
// they are not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks from the ports package
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock v0.6.0 (matches go.mod)
//   Docs: https://github.com/uber-go/mock
//
// Air - Live reload for the portal during frontend work
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air --build.cmd "go build -o ./tmp/tom-portal ./cmd/tom-portal" --build.bin ./tmp/tom-portal
//   Docs: https://github.com/air-verse/air
