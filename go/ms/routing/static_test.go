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

package routing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClusterYAML = `
broker:
  id: broker_0
  host: broker.local
  query_service_port: 8098
  mailbox_port: 8099
servers:
  - id: server_0
    host: host0
    query_service_port: 8421
    mailbox_port: 8442
  - id: server_1
    host: host1
    query_service_port: 8421
    mailbox_port: 8442
  - id: server_2
    host: host2
    query_service_port: 8421
    mailbox_port: 8442
    disabled: true
tables:
  orders:
    partition_column: customer_id
    partition_function: murmur
    num_partitions: 2
    segments:
      server_0: [orders_0]
      server_1: [orders_1]
    partitions:
      server_0: [0]
      server_1: [1]
  events.daily:
    segments:
      server_1: [events_0, events_1]
`

func TestReadStaticRoutingManager(t *testing.T) {
	ctx := context.Background()
	m, err := ReadStaticRoutingManager("yaml", strings.NewReader(testClusterYAML))
	require.NoError(t, err)

	assert.Equal(t, "broker_0", m.Broker().ID)
	assert.Equal(t, 8099, m.Broker().QueryMailboxPort)

	enabled, err := m.GetEnabledServerInstances(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "server_0", enabled[0].ID)
	assert.Equal(t, "host1:8442", enabled[1].MailboxAddress())

	_, ok := m.Server("server_2")
	assert.True(t, ok, "disabled servers are still known")

	rt, err := m.GetRoutingTable(ctx, "orders", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"server_0", "server_1"}, rt.ServerIDs())

	rt, err = m.GetRoutingTable(ctx, "events.daily", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"events_0", "events_1"}, rt.ServerSegments["server_1"])

	placement, err := m.GetTablePlacement(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, placement.Partitioned())
	assert.True(t, placement.DisjointPartitions())
	assert.Equal(t, "customer_id", placement.PartitionColumn)

	placement, err = m.GetTablePlacement(ctx, "events.daily")
	require.NoError(t, err)
	assert.False(t, placement.Partitioned())

	_, err = m.GetRoutingTable(ctx, "missing", 1)
	assert.ErrorContains(t, err, "no routing for table missing")
}

func TestLoadStaticRoutingManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testClusterYAML), 0o600))

	m, err := LoadStaticRoutingManager(path)
	require.NoError(t, err)
	assert.Equal(t, "broker.local", m.Broker().Hostname)

	_, err = LoadStaticRoutingManager(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadStaticRoutingManagerFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/msq/cluster.yaml", []byte(testClusterYAML), 0o600))

	m, err := LoadStaticRoutingManagerFs(fs, "/etc/msq/cluster.yaml")
	require.NoError(t, err)
	assert.Equal(t, "broker.local", m.Broker().Hostname)

	_, err = LoadStaticRoutingManagerFs(fs, "/etc/msq/other.yaml")
	assert.ErrorContains(t, err, "reading cluster file /etc/msq/other.yaml")
}

func TestReadStaticRoutingManagerListsAsStrings(t *testing.T) {
	const compact = `
broker: {id: broker, host: b, mailbox_port: 1}
servers:
  - {id: s0, host: h0, mailbox_port: 2}
tables:
  orders:
    partition_column: id
    num_partitions: 2
    segments: {s0: "orders_0,orders_1"}
    partitions: {s0: [0, 1]}
`
	m, err := ReadStaticRoutingManager("yaml", strings.NewReader(compact))
	require.NoError(t, err)

	rt, err := m.GetRoutingTable(context.Background(), "orders", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_0", "orders_1"}, rt.ServerSegments["s0"])

	placement, err := m.GetTablePlacement(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, placement.ServerPartitions["s0"])
}

func TestReadStaticRoutingManagerUnknownKey(t *testing.T) {
	const misspelled = `
broker: {id: broker, host: b, mailbox_prot: 1}
`
	_, err := ReadStaticRoutingManager("yaml", strings.NewReader(misspelled))
	assert.ErrorContains(t, err, "mailbox_prot")
}

func TestNewStaticRoutingManagerValidation(t *testing.T) {
	tcases := []struct {
		name string
		cfg  ClusterConfig
		err  string
	}{{
		name: "no broker",
		cfg:  ClusterConfig{},
		err:  "no broker",
	}, {
		name: "duplicate server",
		cfg: ClusterConfig{
			Broker:  ServerConfig{ID: "b"},
			Servers: []ServerConfig{{ID: "s"}, {ID: "s"}},
		},
		err: "server s listed twice",
	}, {
		name: "segments on unknown server",
		cfg: ClusterConfig{
			Broker: ServerConfig{ID: "b"},
			Tables: map[string]TableConfig{"t": {Segments: map[string][]string{"x": {"seg"}}}},
		},
		err: "table t: segments on unknown server x",
	}}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStaticRoutingManager(tc.cfg)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}
