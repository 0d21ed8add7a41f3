// Package tf resolves coordinate frame names.
package tf

import "strings"

// Resolve qualifies frame with prefix. A frame that starts with "/" is already fully qualified and
// is returned without the slash. Otherwise the result is "prefix/frame", with any leading slash
// removed from the prefix. An empty prefix leaves the frame unchanged.
func Resolve(prefix, frame string) string {
	if strings.HasPrefix(frame, "/") {
		return frame[1:]
	}
	if prefix == "" {
		return frame
	}
	return strings.TrimPrefix(prefix, "/") + "/" + frame
}
