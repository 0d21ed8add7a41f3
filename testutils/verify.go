// Package testutils holds helpers shared by the package tests.
package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain runs the package tests and fails the run if any goroutine outlives them. Plugin
// and transport packages start background goroutines that must all be joined on Close.
func VerifyTestMain(m goleak.TestingM) {
	goleak.VerifyTestMain(m,
		// the lumberjack mill goroutine lives for the life of the process once a file logger exists.
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}
