package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/config"
	"github.com/sandahltim/StardewAI-sub000/internal/lessons"
	"github.com/sandahltim/StardewAI-sub000/internal/planstore"
	"github.com/sandahltim/StardewAI-sub000/internal/resolver"
	"github.com/sandahltim/StardewAI-sub000/internal/shopstatus"
	"github.com/sandahltim/StardewAI-sub000/internal/skillengine"
)

// resolveStoragePath expands a leading "~" the way the teacher's
// runtime.resolveStoragePath does.
func resolveStoragePath(path string) string {
	if path == "" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "farmagent")
	}
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

// rig bundles the components every subcommand needs, assembled once
// from config the way the teacher's runtime struct is.
type rig struct {
	cfg       *config.Config
	bridge    *bridge.Client
	planStore *planstore.Store
	lessons   *lessons.Store
	engine    *skillengine.Engine
	reserved  *resolver.FileReservedPolicy
	resolver  *resolver.Resolver
	storage   string
}

func buildRig(configPath string) (*rig, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		cfg = config.New()
	}

	storage := resolveStoragePath(cfg.Storage.Path)

	planStore, err := planstore.NewStore(filepath.Join(storage, "plans"))
	if err != nil {
		return nil, fmt.Errorf("open plan store: %w", err)
	}

	lessonsStore, err := lessons.Open(filepath.Join(storage, "lessons.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("open lessons store: %w", err)
	}

	catalog, err := skillengine.LoadCatalog(cfg.Skills.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load skill catalog: %w", err)
	}

	transport := newHTTPTransport(cfg.Bridge.Endpoint, time.Duration(cfg.Bridge.CallTimeoutSec)*time.Second)
	client := bridge.New(transport)

	engine := skillengine.New(client, catalog)

	reservedPath := filepath.Join(storage, "reserved.yaml")
	reserved, err := resolver.NewFileReservedPolicy(reservedPath)
	if err != nil {
		return nil, fmt.Errorf("load reserved-items policy: %w", err)
	}

	shops := shopstatus.Default()
	res := resolver.New(shops, reserved, shops)

	return &rig{
		cfg:       cfg,
		bridge:    client,
		planStore: planStore,
		lessons:   lessonsStore,
		engine:    engine,
		reserved:  reserved,
		resolver:  res,
		storage:   storage,
	}, nil
}
