package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandahltim/StardewAI-sub000/internal/agentloop"
	"github.com/sandahltim/StardewAI-sub000/internal/batch"
	"github.com/sandahltim/StardewAI-sub000/internal/executor"
	"github.com/sandahltim/StardewAI-sub000/internal/overrides"
	"github.com/sandahltim/StardewAI-sub000/internal/planner"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
	"github.com/sandahltim/StardewAI-sub000/internal/telemetry"
)

// Run assembles every wired component from config and drives the
// agent loop until ctx is canceled, mirroring the teacher's
// newRuntime/setup two-step construction in cmd/agent/runtime.go.
func (r *RunCmd) Run(ctx context.Context) error {
	rig, err := buildRig(r.Config)
	if err != nil {
		return err
	}

	watcher, err := skillengine.WatchCatalog(rig.cfg.Skills.CatalogPath, rig.engine)
	if err != nil {
		return fmt.Errorf("watch skill catalog: %w", err)
	}
	defer watcher.Close()

	reservedPath := filepath.Join(rig.storage, "reserved.yaml")
	if _, err := os.Stat(reservedPath); err == nil {
		reservedWatcher, err := watchReservedPolicy(reservedPath, rig.reserved)
		if err != nil {
			return fmt.Errorf("watch reserved-items policy: %w", err)
		}
		defer reservedWatcher.Close()
	}

	exec := executor.New(rig.bridge, rig.engine, rig.bridge, rig.lessons)
	ws := bridgeWorldSource{bridge: rig.bridge}
	batchRunner := batch.New(rig.engine, ws, rig.bridge, rig.lessons)
	chain := overrides.NewStandardChain()
	plnr := planner.New(planner.DefaultConfig())

	var publisher telemetry.Publisher = telemetry.NoopPublisher
	if rig.cfg.Dashboard.Enabled {
		pub, err := telemetry.NewNATSPublisher(rig.cfg.Dashboard.NATSURL, rig.cfg.Dashboard.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("connect telemetry publisher: %w", err)
		}
		publisher = pub
	}

	apiKey := rig.cfg.GetAPIKey()
	if apiKey == "" {
		return fmt.Errorf("no VLM API key found (set %s or %s)", rig.cfg.VLM.APIKeyEnv, "the provider's default env var")
	}
	provider := newVLMProvider(rig.cfg.VLM, apiKey)

	loop := agentloop.New(agentloop.Deps{
		Cfg:       rig.cfg,
		Bridge:    rig.bridge,
		Provider:  provider,
		Planner:   plnr,
		Resolver:  rig.resolver,
		PlanStore: rig.planStore,
		Lessons:   rig.lessons,
		Engine:    rig.engine,
		Executor:  exec,
		Pather:    rig.bridge,
		BatchRun:  batchRunner,
		Chain:     chain,
		Publisher: publisher,
	})
	defer loop.Close()

	if r.Dashboard {
		dashURL := rig.cfg.Dashboard.NATSURL
		prefix := rig.cfg.Dashboard.SubjectPrefix
		go func() {
			if err := runDashboard(ctx, dashURL, prefix); err != nil {
				fmt.Println("dashboard exited:", err)
			}
		}()
	}

	fmt.Println("farmagent: storage at", filepath.Clean(rig.storage))
	return loop.Run(ctx)
}
