/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Station describes the per-site wiring for one broadcast station: where the
// playout automation writes its status file, how to reach the RDS encoder and
// the automation HTTP endpoint, and where assembled ad breaks are written.
type Station struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// StatusFile is the now-playing file rewritten by the playout system.
	StatusFile string `yaml:"status_file"`

	RDSHost string `yaml:"rds_host"`
	RDSPort int    `yaml:"rds_port"`

	// PlayoutURL is the base URL of the automation system's HTTP trigger.
	PlayoutURL string `yaml:"playout_url"`

	// OutputFile is where the concatenated ad artifact is written. The path
	// must be reachable by the playout machine under the same name.
	OutputFile string `yaml:"output_file"`

	// StationIDClip is an optional audio clip prepended to hour-start breaks.
	StationIDClip string `yaml:"station_id_clip"`

	Enabled *bool `yaml:"enabled"`
}

// IsEnabled treats a missing enabled key as true.
func (s Station) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type stationsFile struct {
	Stations []Station `yaml:"stations"`
}

// LoadStations reads station definitions from a YAML file.
func LoadStations(path string) ([]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}

	var parsed stationsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}

	seen := make(map[string]bool)
	for i, st := range parsed.Stations {
		if st.ID == "" {
			return nil, fmt.Errorf("station %d: id is required", i)
		}
		if seen[st.ID] {
			return nil, fmt.Errorf("duplicate station id %q", st.ID)
		}
		seen[st.ID] = true
		if st.StatusFile == "" {
			return nil, fmt.Errorf("station %q: status_file is required", st.ID)
		}
		if st.RDSHost != "" && st.RDSPort <= 0 {
			return nil, fmt.Errorf("station %q: rds_port is required when rds_host is set", st.ID)
		}
	}

	return parsed.Stations, nil
}
