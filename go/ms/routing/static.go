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
	"io"
	"maps"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"vitess.io/multistage/go/ms/cluster"
)

// ServerConfig describes one server in a cluster file.
type ServerConfig struct {
	ID               string `mapstructure:"id" json:"id"`
	Host             string `mapstructure:"host" json:"host"`
	QueryServicePort int    `mapstructure:"query_service_port" json:"query_service_port"`
	MailboxPort      int    `mapstructure:"mailbox_port" json:"mailbox_port"`
	Disabled         bool   `mapstructure:"disabled" json:"disabled,omitempty"`
}

func (sc ServerConfig) instance() *cluster.ServerInstance {
	return &cluster.ServerInstance{
		ID:               sc.ID,
		Hostname:         sc.Host,
		QueryServicePort: sc.QueryServicePort,
		QueryMailboxPort: sc.MailboxPort,
	}
}

// TableConfig describes where the segments of one table live.
type TableConfig struct {
	PartitionColumn   string `mapstructure:"partition_column"`
	PartitionFunction string `mapstructure:"partition_function"`
	NumPartitions     int    `mapstructure:"num_partitions"`
	// Segments maps a server id to the segments it hosts.
	Segments map[string][]string `mapstructure:"segments"`
	// Partitions maps a server id to the partitions it hosts.
	Partitions map[string][]int `mapstructure:"partitions"`
}

// ClusterConfig is the content of a cluster file.
type ClusterConfig struct {
	Broker  ServerConfig           `mapstructure:"broker"`
	Servers []ServerConfig         `mapstructure:"servers"`
	Tables  map[string]TableConfig `mapstructure:"tables"`
}

// StaticRoutingManager serves cluster metadata from a fixed description.
type StaticRoutingManager struct {
	broker  *cluster.ServerInstance
	servers map[string]*cluster.ServerInstance
	enabled []*cluster.ServerInstance
	tables  map[string]TableConfig
}

var _ RoutingManager = (*StaticRoutingManager)(nil)

// newClusterViper uses a key delimiter that cannot appear in table names,
// so that names containing dots stay single keys.
func newClusterViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter("::"))
}

// LoadStaticRoutingManager reads a YAML or JSON cluster file.
func LoadStaticRoutingManager(path string) (*StaticRoutingManager, error) {
	return LoadStaticRoutingManagerFs(afero.NewOsFs(), path)
}

// LoadStaticRoutingManagerFs reads the cluster file at path from fs.
func LoadStaticRoutingManagerFs(fs afero.Fs, path string) (*StaticRoutingManager, error) {
	v := newClusterViper()
	v.SetFs(fs)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading cluster file %s", path)
	}
	return fromViper(v)
}

// ReadStaticRoutingManager reads a cluster description of the given format
// ("yaml" or "json") from r.
func ReadStaticRoutingManager(format string, r io.Reader) (*StaticRoutingManager, error) {
	v := newClusterViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "reading cluster description")
	}
	return fromViper(v)
}

// decodeHook lets segment lists be written as comma separated strings,
// e.g. "segments: {server_0: orders_0,orders_1}".
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToSliceHookFunc(","),
)

// rejectUnknownKeys turns a misspelled setting into an error.
func rejectUnknownKeys(dc *mapstructure.DecoderConfig) {
	dc.ErrorUnused = true
}

func fromViper(v *viper.Viper) (*StaticRoutingManager, error) {
	var cfg ClusterConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook), rejectUnknownKeys); err != nil {
		return nil, errors.Wrap(err, "decoding cluster description")
	}
	return NewStaticRoutingManager(cfg)
}

// NewStaticRoutingManager validates cfg and builds a manager serving it.
func NewStaticRoutingManager(cfg ClusterConfig) (*StaticRoutingManager, error) {
	if cfg.Broker.ID == "" {
		return nil, errors.New("cluster description has no broker")
	}
	m := &StaticRoutingManager{
		broker:  cfg.Broker.instance(),
		servers: make(map[string]*cluster.ServerInstance, len(cfg.Servers)),
		tables:  cfg.Tables,
	}
	for _, sc := range cfg.Servers {
		if sc.ID == "" {
			return nil, errors.New("server without id in cluster description")
		}
		if _, dup := m.servers[sc.ID]; dup {
			return nil, errors.Errorf("server %s listed twice", sc.ID)
		}
		inst := sc.instance()
		m.servers[sc.ID] = inst
		if !sc.Disabled {
			m.enabled = append(m.enabled, inst)
		}
	}
	cluster.SortInstances(m.enabled)
	for name, tc := range cfg.Tables {
		for server := range tc.Segments {
			if _, ok := m.servers[server]; !ok {
				return nil, errors.Errorf("table %s: segments on unknown server %s", name, server)
			}
		}
	}
	return m, nil
}

// Broker returns the instance running the client stage.
func (m *StaticRoutingManager) Broker() *cluster.ServerInstance {
	return m.broker
}

// Server returns the server with the given id.
func (m *StaticRoutingManager) Server(id string) (*cluster.ServerInstance, bool) {
	s, ok := m.servers[id]
	return s, ok
}

// GetRoutingTable implements RoutingManager.
func (m *StaticRoutingManager) GetRoutingTable(_ context.Context, table string, _ int64) (*cluster.RoutingTable, error) {
	tc, ok := m.tables[table]
	if !ok {
		return nil, errors.Errorf("no routing for table %s", table)
	}
	rt := &cluster.RoutingTable{ServerSegments: make(map[string][]string, len(tc.Segments))}
	for server, segments := range tc.Segments {
		if len(segments) > 0 {
			rt.ServerSegments[server] = slices.Clone(segments)
		}
	}
	return rt, nil
}

// GetEnabledServerInstances implements RoutingManager.
func (m *StaticRoutingManager) GetEnabledServerInstances(context.Context) ([]*cluster.ServerInstance, error) {
	return slices.Clone(m.enabled), nil
}

// GetTablePlacement implements RoutingManager.
func (m *StaticRoutingManager) GetTablePlacement(_ context.Context, table string) (*cluster.TablePlacement, error) {
	tc, ok := m.tables[table]
	if !ok {
		return nil, errors.Errorf("no placement for table %s", table)
	}
	return &cluster.TablePlacement{
		Table:             table,
		PartitionColumn:   tc.PartitionColumn,
		PartitionFunction: tc.PartitionFunction,
		NumPartitions:     tc.NumPartitions,
		ServerPartitions:  maps.Clone(tc.Partitions),
	}, nil
}
