package main

import (
	"context"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// bridgeWorldSource adapts bridge.Client's two separate snapshot calls
// to batch.WorldSource's single combined Snapshot, since a batch run
// needs a consistent (world, farm) pair on every step.
type bridgeWorldSource struct {
	bridge *bridge.Client
}

func (s bridgeWorldSource) Snapshot(ctx context.Context) (world.WorldSnapshot, world.FarmSnapshot, error) {
	w, err := s.bridge.GetState(ctx)
	if err != nil {
		return world.WorldSnapshot{}, world.FarmSnapshot{}, err
	}
	f, err := s.bridge.GetFarm(ctx)
	if err != nil {
		return world.WorldSnapshot{}, world.FarmSnapshot{}, err
	}
	return w, f, nil
}
