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

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

var (
	logFormat string
	logLevel  string

	// structured is the slog logger in use, or nil while records go to glog.
	structured atomic.Pointer[slog.Logger]

	structuredOutput io.Writer = os.Stderr
)

var slogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Init switches the S functions to slog when --log-fmt was given on the
// command line. Otherwise they keep writing through glog.
func Init(fs *pflag.FlagSet) error {
	if fs == nil || !fs.Changed("log-fmt") {
		return nil
	}
	level, err := slogLevel(logLevel)
	if err != nil {
		return err
	}
	handler, err := slogHandler(logFormat, structuredOutput, &slog.HandlerOptions{AddSource: true, Level: level})
	if err != nil {
		return err
	}
	structured.Store(slog.New(handler))
	return nil
}

func slogLevel(name string) (slog.Level, error) {
	level, ok := slogLevels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid log-level %q: expected debug, info, warn, or error", name)
	}
	return level, nil
}

func slogHandler(format string, w io.Writer, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "logfmt":
		return slog.NewTextHandler(w, opts), nil
	}
	return nil, fmt.Errorf("invalid log-fmt %q: expected json or logfmt", format)
}

// InfoS logs msg with key/value pairs at the Info level.
func InfoS(msg string, args ...any) { logS(slog.LevelInfo, msg, args) }

// WarnS logs msg with key/value pairs at the Warn level.
func WarnS(msg string, args ...any) { logS(slog.LevelWarn, msg, args) }

// DebugS logs msg with key/value pairs at the Debug level. Without slog the
// record is only written at glog verbosity 2 and above.
func DebugS(msg string, args ...any) { logS(slog.LevelDebug, msg, args) }

func logS(level slog.Level, msg string, args []any) {
	logger := structured.Load()
	if logger == nil {
		toGlog(level, msg, args)
		return
	}
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	// runtime.Callers, logS and the exported function
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// toGlog writes a record as "msg key=value ...".
func toGlog(level slog.Level, msg string, args []any) {
	const depth = 3
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(&b, " %v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	switch {
	case level >= slog.LevelError:
		glog.ErrorDepth(depth, b.String())
	case level >= slog.LevelWarn:
		glog.WarningDepth(depth, b.String())
	case level >= slog.LevelInfo:
		glog.InfoDepth(depth, b.String())
	case bool(glog.V(2)):
		glog.InfoDepth(depth, b.String())
	}
}
