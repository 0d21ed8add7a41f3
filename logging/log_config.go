package logging

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

// A pattern is dot separated sections, each a name such as `ft_sensor` or the `*` wildcard.
var loggerPatternRegexp = regexp.MustCompile(
	`^(\*|[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*)(\.(\*|[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*))*$`)

// ValidatePattern reports whether pattern is a well formed logger pattern.
func ValidatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

// Validate checks the pattern and the level.
func (lpc LoggerPatternConfig) Validate() error {
	if !ValidatePattern(lpc.Pattern) {
		return errors.Errorf("invalid logger pattern %q", lpc.Pattern)
	}
	_, err := LevelFromString(lpc.Level)
	return err
}

// compilePattern turns a valid pattern into a regexp over full logger names. A `*` section
// matches any run of characters, dots included.
func compilePattern(pattern string) *regexp.Regexp {
	sections := strings.Split(pattern, ".")
	for i, section := range sections {
		if section == "*" {
			sections[i] = `.*`
		} else {
			sections[i] = regexp.QuoteMeta(section)
		}
	}
	return regexp.MustCompile(`^` + strings.Join(sections, `\.`) + `$`)
}
