/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package utils holds helpers shared by tests.
package utils

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// ignoredGoroutines are long-lived goroutines started by libraries, not by
// the code under test.
var ignoredGoroutines = []goleak.Option{
	goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
	goleak.IgnoreTopFunction("github.com/golang/glog.(*loggingT).flushDaemon"),
	goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	goleak.IgnoreTopFunction("testing.tRunner.func1"),
}

// VerifyTestMain runs the tests of a package and fails the run if
// goroutines are left behind once they finish.
func VerifyTestMain(m *testing.M) {
	goleak.VerifyTestMain(m, ignoredGoroutines...)
}

// LeakCheckContext returns a Context cancelled at the end of the test. If
// the test passed, it is then checked for leaked goroutines.
func LeakCheckContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		EnsureNoLeaks(t)
	})
	return ctx
}

// EnsureNoLeaks fails the test if goroutines other than the ignored ones
// are still running. Goroutines get a short grace period to exit.
func EnsureNoLeaks(t testing.TB) {
	if t.Failed() {
		return
	}
	var err error
	for range 5 {
		if err = goleak.Find(ignoredGoroutines...); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal(err)
}
