package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.txt", "report.txt"},
		{"unix traversal", "../../etc/passwd", "passwd"},
		{"windows traversal", `..\..\windows\win.ini`, "win.ini"},
		{"bare dotdot", "..", unnamedFallback},
		{"empty", "", unnamedFallback},
		{"embedded dotdot no separator", "a..b", "ab"},
		{"trailing separator", "dir/", unnamedFallback},
		{"nested normal path", "a/b/c.txt", "c.txt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeFilename(tc.in))
		})
	}
}
