// In file: cmd/weather-assistant/version.go
package main

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// UserAgent identifies this build to upstream APIs, e.g. "weather-assistant/1.2.0 (abc1234)".
func (b BuildInfo) UserAgent() string {
	if b.GitCommit == "unknown" {
		return "weather-assistant/" + b.Version
	}
	return fmt.Sprintf("weather-assistant/%s (%s)", b.Version, b.GitCommit)
}
