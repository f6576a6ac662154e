package taste

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// FallbackClusterID is assigned when a vector is missing from the match
// table. The table is supposed to be exhaustive over reachable vectors, so
// hitting the fallback is logged as a warning.
const FallbackClusterID = 1

// ClusterMetadata is the display metadata for one taste cluster.
type ClusterMetadata struct {
	ID      int    `json:"-"`
	RawID   string `json:"cluster_id"`
	Medoid  string `json:"cluster_medoid_value"`
	Name    string `json:"cluster_name"`
	Tagline string `json:"cluster_tagline"`
}

// ClusterTable is the startup-loaded, immutable vector-to-cluster lookup:
// a TSV match table mapping every reachable discretized vector to a cluster
// id, plus JSON metadata per cluster. Read-only after load, safe for
// concurrent use.
type ClusterTable struct {
	lookup map[string]int
	meta   map[int]ClusterMetadata
	logger *slog.Logger
}

// LoadClusterTable reads the match TSV and cluster metadata JSON from disk.
// The TSV format is "v1,...,v7<TAB>cluster_id" with an optional header line
// starting with "value". Malformed lines are skipped.
func LoadClusterTable(matchPath, clusterPath string, logger *slog.Logger) (*ClusterTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &ClusterTable{
		lookup: make(map[string]int),
		meta:   make(map[int]ClusterMetadata),
		logger: logger,
	}

	if err := t.loadMatchTSV(matchPath); err != nil {
		return nil, err
	}
	if err := t.loadClusterJSON(clusterPath); err != nil {
		return nil, err
	}

	logger.Info("cluster table loaded",
		"match_rows", len(t.lookup),
		"clusters", len(t.meta))
	return t, nil
}

func (t *ClusterTable) loadMatchTSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open match table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "value") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		clusterID, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		t.lookup[strings.TrimSpace(parts[0])] = clusterID
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read match table: %w", err)
	}
	return nil
}

func (t *ClusterTable) loadClusterJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open cluster metadata: %w", err)
	}
	var clusters []ClusterMetadata
	if err := json.Unmarshal(data, &clusters); err != nil {
		return fmt.Errorf("parse cluster metadata: %w", err)
	}
	for _, c := range clusters {
		id, err := strconv.Atoi(c.RawID)
		if err != nil {
			t.logger.Warn("skipping cluster with non-numeric id", "cluster_id", c.RawID)
			continue
		}
		c.ID = id
		t.meta[id] = c
	}
	return nil
}

// Lookup resolves a vector to its cluster id. Unknown vectors fall back to
// FallbackClusterID with a warning. A nil table resolves everything to the
// fallback cluster.
func (t *ClusterTable) Lookup(v Vector) int {
	if t == nil {
		return FallbackClusterID
	}
	key := v.Key()
	if id, ok := t.lookup[key]; ok {
		return id
	}
	t.logger.Warn("vector missing from match table, using fallback cluster",
		"vector", key,
		"fallback", FallbackClusterID)
	return FallbackClusterID
}

// Metadata returns the display metadata for a cluster id.
func (t *ClusterTable) Metadata(clusterID int) (ClusterMetadata, bool) {
	if t == nil {
		return ClusterMetadata{}, false
	}
	m, ok := t.meta[clusterID]
	return m, ok
}

// Size returns the number of match rows loaded.
func (t *ClusterTable) Size() int {
	if t == nil {
		return 0
	}
	return len(t.lookup)
}
