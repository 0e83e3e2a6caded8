package simconfig

import (
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// LoadFile unmarshals a single scenario file (YAML or JSON, anything
// viper recognizes by extension). Grounded on
// SchedulingConfigFromFilePath in armada's
// internal/scheduler/simulator/runner.go, down to the "::" key
// delimiter so scenario keys can safely contain dots (e.g. workload
// names that look like hostnames).
func LoadFile(path string) (Scenario, error) {
	var scenario Scenario
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return scenario, errors.Wrapf(err, "failed to read scenario file %s", path)
	}
	if err := v.Unmarshal(&scenario); err != nil {
		return scenario, errors.Wrapf(err, "failed to unmarshal scenario file %s", path)
	}
	if scenario.Name == "" {
		scenario.Name = path
	}
	return scenario, nil
}

// LoadPattern glob-expands pattern (supporting "**", via go-zglob,
// exactly as armada's ClusterSpecsFromPattern/WorkloadsFromPattern do)
// and loads every matching file as a Scenario.
func LoadPattern(pattern string) ([]Scenario, error) {
	paths, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to glob scenario pattern %s", pattern)
	}
	scenarios := make([]Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
