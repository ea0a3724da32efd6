package main

import (
	"fmt"

	"github.com/tilsley/repobrowse/apps/browser/internal/remote/inmem"
)

type envCfg struct {
	replicas int
	tag      string
}

var appEnvs = map[string]map[string]envCfg{
	"billing-api": {
		"dev":     {replicas: 1, tag: "dev-latest"},
		"staging": {replicas: 2, tag: "v1.2.0"},
		"prod":    {replicas: 3, tag: "v1.1.0"},
	},
	"user-service": {
		"dev":     {replicas: 1, tag: "dev-latest"},
		"staging": {replicas: 2, tag: "v2.0.0-rc1"},
		"prod":    {replicas: 3, tag: "v1.9.0"},
	},
}

// seedRepo fills project/repository with a small configuration tree:
//
//	/services/<app>/app.json
//	/services/<app>/overlays/<env>.yaml
//	/teams.yaml
func seedRepo(m *inmem.InMem, project, repository string) {
	for app, envs := range appEnvs {
		m.SetFile(project, repository, fmt.Sprintf("/services/%s/app.json", app), appJSON(app))
		for env, cfg := range envs {
			m.SetFile(project, repository, fmt.Sprintf("/services/%s/overlays/%s.yaml", app, env),
				overlayYAML(env, cfg))
		}
	}
	m.SetFile(project, repository, "/teams.yaml", "payments:\n  - billing-api\nidentity:\n  - user-service\n")
}

func appJSON(app string) string {
	return fmt.Sprintf(`{
  "name": %q,
  "chart": "generic-app",
  "port": 8080
}
`, app)
}

func overlayYAML(env string, cfg envCfg) string {
	return fmt.Sprintf("environment: %s\nreplicas: %d\nimage:\n  tag: %s\n", env, cfg.replicas, cfg.tag)
}
