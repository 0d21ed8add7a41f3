package tf

import (
	"testing"

	"go.viam.com/test"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		prefix, frame, expected string
	}{
		{"", "hand", "hand"},
		{"robot", "hand", "robot/hand"},
		{"/robot", "hand", "robot/hand"},
		{"robot", "/hand", "hand"},
		{"", "/world/hand", "world/hand"},
		{"/a/b", "hand", "a/b/hand"},
	} {
		test.That(t, Resolve(tc.prefix, tc.frame), test.ShouldEqual, tc.expected)
	}
}
