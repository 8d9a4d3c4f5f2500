package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewerVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		other   string
		current string
		want    bool
	}{
		{name: "newer minor", other: "1.3.0", current: "1.2.9", want: true},
		{name: "newer patch with v prefix", other: "v1.2.1", current: "v1.2.0", want: true},
		{name: "equal", other: "1.2.0", current: "v1.2.0", want: false},
		{name: "older", other: "1.1.0", current: "1.2.0", want: false},
		{name: "release beats prerelease", other: "2.0.0", current: "2.0.0-rc.1", want: true},
		{name: "development build is never newer", other: "build-abcdef12", current: "1.0.0", want: false},
		{name: "development current", other: "1.0.0", current: "build-abcdef12", want: false},
		{name: "empty", other: "", current: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNewerVersion(tt.other, tt.current))
		})
	}
}
