package ros

import "strings"

// ResolveName resolves name against a namespace. Global names (leading "/") ignore the namespace;
// everything else is nested under it. Empty segments are dropped so the result always has exactly
// one leading slash and no trailing one.
func ResolveName(namespace, name string) string {
	full := name
	if !strings.HasPrefix(name, "/") {
		full = namespace + "/" + name
	}
	var segments []string
	for _, segment := range strings.Split(full, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return "/" + strings.Join(segments, "/")
}
