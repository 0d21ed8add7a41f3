package logging

import (
	"regexp"
	"sort"
	"sync"

	"github.com/samber/lo"
)

type levelRule struct {
	matcher *regexp.Regexp
	level   Level
}

// Registry tracks named loggers so level patterns from a world file apply to loggers created
// both before and after the patterns arrive.
type Registry struct {
	mu      sync.RWMutex
	loggers map[string]Logger
	rules   []levelRule
}

// NewRegistry returns an empty logger registry.
func NewRegistry() *Registry {
	return &Registry{loggers: map[string]Logger{}}
}

// LoggerNamed returns the logger registered under name, if any.
func (lr *Registry) LoggerNamed(name string) (Logger, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	return logger, ok
}

// levelFor returns the level of the last rule matching name.
func (lr *Registry) levelFor(name string) (Level, bool) {
	for i := len(lr.rules) - 1; i >= 0; i-- {
		if lr.rules[i].matcher.MatchString(name) {
			return lr.rules[i].level, true
		}
	}
	return INFO, false
}

// UpdateConfig replaces the patterns and re-levels every registered logger. Later patterns take
// precedence and loggers that match none go back to INFO. Malformed patterns are reported to
// errorLogger and skipped; an unknown level fails the whole update.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	rules := make([]levelRule, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !ValidatePattern(lpc.Pattern) {
			errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			continue
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			return err
		}
		rules = append(rules, levelRule{matcher: compilePattern(lpc.Pattern), level: level})
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.rules = rules
	for name, logger := range lr.loggers {
		level, _ := lr.levelFor(name)
		logger.SetLevel(level)
	}
	return nil
}

// GetOrRegister returns the logger already registered under name or, failing that, registers
// logger, levels it by the current patterns and returns it. Concurrent callers all get the
// first registered logger.
func (lr *Registry) GetOrRegister(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existing, ok := lr.loggers[name]; ok {
		return existing
	}
	lr.loggers[name] = logger
	if level, ok := lr.levelFor(name); ok {
		logger.SetLevel(level)
	}
	return logger
}

// RegisteredLoggerNames returns the sorted names of all registered loggers.
func (lr *Registry) RegisteredLoggerNames() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	names := lo.Keys(lr.loggers)
	sort.Strings(names)
	return names
}
