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

// Package cli contains the msqplan commands.
package cli

import (
	goflag "flag"

	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"

	"vitess.io/multistage/go/ms/log"
	"vitess.io/multistage/go/trace"
)

var (
	// Root is the msqplan command.
	Root = &cobra.Command{
		Use:   "msqplan",
		Short: "msqplan splits relational plans into distributed stages.",
		Long: "`msqplan` reads an optimized relational plan and a cluster description and prints\n" +
			"the dispatchable multi-stage plan: stages, worker assignment and mailbox routes.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Init(cmd.Flags()); err != nil {
				return err
			}
			trace.UseOpenTracing(opentracing.GlobalTracer())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}
)

func init() {
	log.RegisterFlags(Root.PersistentFlags())
	Root.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	Root.AddCommand(Explain)
}
