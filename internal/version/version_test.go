package version

import (
	"testing"
)

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{
			name:     "development build",
			info:     BuildInfo{Version: "dev", BuildTime: "unknown", GitCommit: "unknown"},
			expected: "dev (development build)",
		},
		{
			name:     "release build",
			info:     BuildInfo{Version: "v1.2.0", BuildTime: "2026-03-01T10:20:30Z", GitCommit: "0123456789abcdef"},
			expected: "v1.2.0 (built 2026-03-01 10:20:30 UTC, commit 01234567)",
		},
		{
			name:     "short commit",
			info:     BuildInfo{Version: "v1.2.0", BuildTime: "2026-03-01T10:20:30Z", GitCommit: "abc"},
			expected: "v1.2.0 (built 2026-03-01 10:20:30 UTC, commit abc)",
		},
		{
			name:     "unparseable build time",
			info:     BuildInfo{Version: "v1.2.0", BuildTime: "yesterday", GitCommit: "abc"},
			expected: "v1.2.0 (built yesterday)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("String() = %q; want %q", got, tt.expected)
			}
		})
	}
}
