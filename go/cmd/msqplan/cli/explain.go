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

package cli

import (
	"github.com/spf13/cobra"

	"vitess.io/multistage/go/ms/explain"
	"vitess.io/multistage/go/ms/log"
	"vitess.io/multistage/go/ms/msconfig"
	"vitess.io/multistage/go/ms/planner"
	"vitess.io/multistage/go/ms/rel/relfile"
	"vitess.io/multistage/go/ms/routing"
	"vitess.io/multistage/go/ms/tablecache"
	"vitess.io/multistage/go/utils"
)

var (
	explainFlags msconfig.Flags
	planFile     string
	asJSON       bool

	// Explain plans a query and prints the result.
	Explain = &cobra.Command{
		Use:   "explain --plan <file> --cluster <file>",
		Short: "Plans a relational plan file and prints the stages.",
		Example: "msqplan explain --plan join.json --cluster cluster.yaml --option useColocatedJoin=true\n" +
			"msqplan explain --plan join.json --cluster cluster.yaml --json",
		Args: cobra.NoArgs,
		RunE: commandExplain,
	}
)

func commandExplain(cmd *cobra.Command, args []string) error {
	cfg, err := msconfig.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if planFile == "" || cfg.ClusterFile == "" {
		return cmd.Usage()
	}

	plan, err := relfile.ReadFile(planFile)
	if err != nil {
		return err
	}
	rm, err := routing.LoadStaticRoutingManager(cfg.ClusterFile)
	if err != nil {
		return err
	}
	placements := tablecache.NewPlacementCache(rm, cfg.PlacementCache)
	p := planner.NewStagePlanner(cfg.PlannerContext(), routing.NewWorkerManager(rm.Broker(), rm), cfg.RequestID, placements)

	qp, err := p.MakePlan(cmd.Context(), plan.Root, plan.Tables)
	if err != nil {
		return err
	}
	log.InfoS("planned query", "request_id", cfg.RequestID, "stages", len(qp.QueryStageMap), "tables", plan.Tables)

	if asJSON {
		data, err := explain.JSON(qp)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	return explain.Text(cmd.OutOrStdout(), qp)
}

func init() {
	explainFlags.RegisterFlags(Explain.Flags())
	utils.SetFlagStringVar(Explain.Flags(), &planFile, "plan", "", "Path to the JSON relational plan.")
	utils.SetFlagBoolVar(Explain.Flags(), &asJSON, "json", false, "Print the plan as JSON.")
}
