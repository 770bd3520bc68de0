package main

import (
	"context"
	"errors"
	"testing"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

type fakeWorldTransport struct {
	state    world.WorldSnapshot
	farm     world.FarmSnapshot
	farmErr  error
	stateErr error
}

func (f *fakeWorldTransport) GetState(ctx context.Context) (world.WorldSnapshot, error) {
	return f.state, f.stateErr
}
func (f *fakeWorldTransport) GetSurroundings(ctx context.Context) (world.Surroundings, error) {
	return world.Surroundings{}, nil
}
func (f *fakeWorldTransport) GetFarm(ctx context.Context) (world.FarmSnapshot, error) {
	return f.farm, f.farmErr
}
func (f *fakeWorldTransport) CheckPath(ctx context.Context, from, to world.Tile) (bridge.PathResult, error) {
	return bridge.PathResult{}, nil
}
func (f *fakeWorldTransport) Execute(ctx context.Context, action bridge.PrimitiveAction) (bridge.ActionResult, error) {
	return bridge.ActionResult{}, nil
}

func TestBridgeWorldSource_Snapshot_CombinesBothCalls(t *testing.T) {
	ft := &fakeWorldTransport{
		state: world.WorldSnapshot{Money: 42},
		farm:  world.FarmSnapshot{TilledTiles: []world.Tile{{X: 1, Y: 1}}},
	}
	ws := bridgeWorldSource{bridge: bridge.New(ft)}

	w, f, err := ws.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if w.Money != 42 || len(f.TilledTiles) != 1 {
		t.Errorf("Snapshot() = (%+v, %+v)", w, f)
	}
}

func TestBridgeWorldSource_Snapshot_PropagatesFarmError(t *testing.T) {
	ft := &fakeWorldTransport{farmErr: errors.New("bridge down")}
	ws := bridgeWorldSource{bridge: bridge.New(ft)}

	if _, _, err := ws.Snapshot(context.Background()); err == nil {
		t.Fatal("expected Snapshot to surface the farm-fetch error")
	}
}
