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
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := slogLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := slogHandler("logfmt", &buf, nil)
	require.NoError(t, err)
	slog.New(h).Info("planned", "stages", 3)
	assert.Contains(t, buf.String(), "stages=3")

	_, err = slogHandler("xml", &buf, nil)
	assert.ErrorContains(t, err, "invalid log-fmt")
}

func TestInitWithoutFormatFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, Init(fs))
	assert.Nil(t, structured.Load())
}

func TestInitStructured(t *testing.T) {
	var buf bytes.Buffer
	oldOutput := structuredOutput
	structuredOutput = &buf
	defer func() {
		structuredOutput = oldOutput
		structured.Store(nil)
	}()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-fmt", "json", "--log-level", "warn"}))
	require.NoError(t, Init(fs))

	InfoS("planned query", "stages", 3)
	assert.Empty(t, buf.String(), "info is below the configured level")
	WarnS("colocation pass failed", "request_id", 42)
	assert.Contains(t, buf.String(), `"request_id":42`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
