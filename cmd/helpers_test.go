package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/resolve"
)

// 560002 is assigned to North but lies 1.1 km from South; 560099 has no
// coordinates.
const testHubsYAML = `
hubs:
  - name: North
    lat: 13.0
    lon: 77.6
    pincodes: ["560001", "560002", "560099"]
  - name: South
    lat: 12.9
    lon: 77.6
    pincodes: ["560003"]
pincodes:
  "560001": {lat: 13.01, lon: 77.6}
  "560002": {lat: 12.91, lon: 77.6}
  "560003": {lat: 12.9, lon: 77.61}
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Data.HubsFile = writeTestFile(t, "hubs.yaml", testHubsYAML)
	c.Analysis.Index = "rtree"
	c.Analysis.CoverageRadiusKM = 3
	c.Resolver.Concurrency = 2
	c.Resolver.MemoSize = 16
	c.Server.Port = 8080
	c.Server.CORSOrigins = []string{"*"}
	return c
}

func testEnv(t *testing.T, c *config.Config) (*analysisEnv, *model.Report, resolve.Resolution) {
	t.Helper()
	env, err := initAnalysis(context.Background(), c, config.ModeAnalyze)
	require.NoError(t, err)
	t.Cleanup(env.Close)

	rep, res, err := env.Analyze(context.Background(), c.Resolver.Concurrency)
	require.NoError(t, err)
	return env, rep, res
}
