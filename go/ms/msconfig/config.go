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

// Package msconfig holds the configuration of the planner tools. Values come
// from flags, MSQ_ environment variables and an optional config file, in
// that order of precedence.
package msconfig

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vitess.io/multistage/go/ms/planner/plancontext"
	"vitess.io/multistage/go/ms/tablecache"
	"vitess.io/multistage/go/utils"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "MSQ"

// Config is the resolved configuration.
type Config struct {
	ClusterFile string
	RequestID   int64
	// Options are the planner options: config file "options" first, then
	// every --option key=value on top.
	Options        map[string]string
	PlacementCache tablecache.Config
}

// PlannerContext returns a planner context holding the configured options.
func (c *Config) PlannerContext() *plancontext.PlannerContext {
	return plancontext.NewPlannerContext(c.Options)
}

// Flags are the raw flag values, bound to viper keys by Load.
type Flags struct {
	ConfigFile         string
	ClusterFile        string
	RequestID          int64
	Options            []string
	PlacementCacheTTL  time.Duration
	PlacementCacheScan time.Duration
}

// RegisterFlags installs the configuration flags on fs.
func (f *Flags) RegisterFlags(fs *pflag.FlagSet) {
	utils.SetFlagStringVar(fs, &f.ConfigFile, "config", "", "Path to a YAML, JSON or TOML config file.")
	utils.SetFlagStringVar(fs, &f.ClusterFile, "cluster", "", "Path to the cluster description (servers, broker, table placement).")
	utils.SetFlagInt64Var(fs, &f.RequestID, "request-id", 1, "Request id used for stage assignment and mailbox ids.")
	fs.StringArrayVar(&f.Options, "option", nil, "Planner option as key=value, e.g. useColocatedJoin=true. May be repeated.")
	utils.SetFlagDurationVar(fs, &f.PlacementCacheTTL, "placement-cache-ttl", time.Minute, "How long table placements are cached.")
	utils.SetFlagDurationVar(fs, &f.PlacementCacheScan, "placement-cache-cleanup-interval", 5*time.Minute, "How often expired table placements are evicted.")
}

// Load resolves the configuration from the flags in fs (registered by
// RegisterFlags), the environment and the config file named by --config.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"config", "cluster", "request-id", "placement-cache-ttl", "placement-cache-cleanup-interval"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return nil, errors.Wrapf(err, "binding flag %s", name)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	options := map[string]string{}
	for key, value := range v.GetStringMapString("options") {
		options[canonicalOption(key)] = value
	}
	pairs, err := fs.GetStringArray("option")
	if err != nil {
		return nil, err
	}
	overrides, err := ParseOptions(pairs)
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		delete(options, strings.ToLower(key))
		options[key] = value
	}

	return &Config{
		ClusterFile: v.GetString("cluster"),
		RequestID:   v.GetInt64("request-id"),
		Options:     options,
		PlacementCache: tablecache.Config{
			DefaultExpiration: v.GetDuration("placement-cache-ttl"),
			CleanupInterval:   v.GetDuration("placement-cache-cleanup-interval"),
		},
	}, nil
}

// ParseOptions parses key=value pairs. Later pairs win.
func ParseOptions(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("invalid option %q, expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// knownOptions restores the case of option names, which viper lowercases
// when reading config files.
var knownOptions = map[string]string{
	strings.ToLower(plancontext.UseColocatedJoinOption): plancontext.UseColocatedJoinOption,
}

func canonicalOption(key string) string {
	if name, ok := knownOptions[key]; ok {
		return name
	}
	return key
}
