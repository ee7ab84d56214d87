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

package physical

import (
	"slices"

	"vitess.io/multistage/go/ms/cluster"
)

// StageMetadata is what the dispatcher needs to know about one stage.
type StageMetadata struct {
	// ScannedTables lists the tables scanned by the stage; leaf stages scan
	// exactly one.
	ScannedTables []string
	// RequiresSingleton is set when the stage reads a SINGLETON exchange
	// and therefore must run on a single worker.
	RequiresSingleton bool

	// ServerInstances is the worker set assigned to the stage.
	ServerInstances []*cluster.ServerInstance
	// ServerSegments maps a worker id to table name to the segments the
	// worker scans. Only set for leaf stages.
	ServerSegments map[string]map[string][]string

	// MailboxRoutes maps the id of each worker of a sending stage to the
	// mailboxes it writes to.
	MailboxRoutes map[string][]MailboxID
}

func (md *StageMetadata) addScannedTable(table string) {
	if !slices.Contains(md.ScannedTables, table) {
		md.ScannedTables = append(md.ScannedTables, table)
	}
}

// IsLeaf reports whether the stage scans a table.
func (md *StageMetadata) IsLeaf() bool {
	return len(md.ScannedTables) > 0
}

// WorkerIDs returns the ids of the assigned workers in assignment order.
func (md *StageMetadata) WorkerIDs() []string {
	ids := make([]string, len(md.ServerInstances))
	for i, s := range md.ServerInstances {
		ids[i] = s.ID
	}
	return ids
}
