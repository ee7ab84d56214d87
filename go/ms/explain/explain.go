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

// Package explain renders dispatchable plans for humans and tools.
package explain

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/xlab/treeprint"

	"vitess.io/multistage/go/ms/physical"
	"vitess.io/multistage/go/ms/stage"
)

// PlanDescription is a serializable representation of a stage tree.
type PlanDescription struct {
	OperatorType string            `json:"operator"`
	StageID      int               `json:"stage"`
	Detail       string            `json:"detail"`
	Inputs       []PlanDescription `json:"inputs,omitempty"`
}

// StageToPlanDescription describes node and everything below it in its stage.
func StageToPlanDescription(node stage.Node) PlanDescription {
	this := PlanDescription{
		OperatorType: operatorType(node),
		StageID:      node.StageID(),
		Detail:       node.Explain(),
	}
	for _, input := range node.Inputs() {
		this.Inputs = append(this.Inputs, StageToPlanDescription(input))
	}
	return this
}

func operatorType(node stage.Node) string {
	name := fmt.Sprintf("%T", node)
	name = name[strings.LastIndexByte(name, '.')+1:]
	return strings.TrimSuffix(name, "Node")
}

// StageDescription summarizes one stage of a plan.
type StageDescription struct {
	StageID  int                            `json:"stage"`
	Workers  []string                       `json:"workers"`
	Tables   []string                       `json:"tables,omitempty"`
	Segments map[string]map[string][]string `json:"segments,omitempty"`
	Routes   map[string][]string            `json:"routes,omitempty"`
	Root     PlanDescription                `json:"root"`
}

// Describe summarizes every stage of plan in stage id order.
func Describe(plan *physical.QueryPlan) []StageDescription {
	var out []StageDescription
	for _, id := range plan.StageIDs() {
		md := plan.StageMetadataMap[id]
		sd := StageDescription{
			StageID: id,
			Root:    StageToPlanDescription(plan.QueryStageMap[id]),
		}
		if md != nil {
			sd.Workers = md.WorkerIDs()
			sd.Tables = md.ScannedTables
			sd.Segments = md.ServerSegments
			if len(md.MailboxRoutes) > 0 {
				sd.Routes = make(map[string][]string, len(md.MailboxRoutes))
				for worker, boxes := range md.MailboxRoutes {
					for _, box := range boxes {
						sd.Routes[worker] = append(sd.Routes[worker], box.String())
					}
				}
			}
		}
		out = append(out, sd)
	}
	return out
}

// JSON returns the indented JSON form of Describe(plan).
func JSON(plan *physical.QueryPlan) ([]byte, error) {
	return json.MarshalIndent(struct {
		RequestID int64              `json:"request_id"`
		Stages    []StageDescription `json:"stages"`
	}{plan.RequestID, Describe(plan)}, "", "  ")
}

// Text writes a table summarizing the stages of plan followed by the
// operator tree of every stage.
func Text(w io.Writer, plan *physical.QueryPlan) error {
	stages := Describe(plan)

	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Stage", "Workers", "Tables", "Root"})
	table.SetAutoWrapText(false)
	for _, sd := range stages {
		table.Append([]string{
			fmt.Sprintf("%d", sd.StageID),
			strings.Join(sd.Workers, ", "),
			strings.Join(sd.Tables, ", "),
			sd.Root.Detail,
		})
	}
	table.Render()
	if _, err := io.WriteString(w, tableString.String()); err != nil {
		return err
	}

	for _, sd := range stages {
		if _, err := fmt.Fprintf(w, "\n%s", ToTree(sd)); err != nil {
			return err
		}
	}
	return nil
}

// ToTree draws the operator tree of one stage below a "[stage id]" root.
func ToTree(sd StageDescription) string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("[%d]", sd.StageID))
	asTree(sd.Root, tree)
	return tree.String()
}

func asTree(pd PlanDescription, parent treeprint.Tree) {
	branch := parent.AddBranch(pd.Detail)
	for _, in := range pd.Inputs {
		asTree(in, branch)
	}
}
