package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// fakeTransport is a scriptable Transport double, in the teacher's mock
// style (src/internal/llm/models_test.go's MockProvider).
type fakeTransport struct {
	state  world.WorldSnapshot
	surr   world.Surroundings
	farm   world.FarmSnapshot
	path   PathResult
	result ActionResult

	err         error
	lastAction  PrimitiveAction
	executeCall int
}

func (f *fakeTransport) GetState(ctx context.Context) (world.WorldSnapshot, error) {
	return f.state, f.err
}

func (f *fakeTransport) GetSurroundings(ctx context.Context) (world.Surroundings, error) {
	return f.surr, f.err
}

func (f *fakeTransport) GetFarm(ctx context.Context) (world.FarmSnapshot, error) {
	return f.farm, f.err
}

func (f *fakeTransport) CheckPath(ctx context.Context, from, to world.Tile) (PathResult, error) {
	return f.path, f.err
}

func (f *fakeTransport) Execute(ctx context.Context, action PrimitiveAction) (ActionResult, error) {
	f.executeCall++
	f.lastAction = action
	return f.result, f.err
}

func TestClient_GetState(t *testing.T) {
	want := world.WorldSnapshot{DayOfWeek: "Mon"}
	ft := &fakeTransport{state: want}
	c := New(ft)

	got, err := c.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DayOfWeek != want.DayOfWeek {
		t.Errorf("GetState() = %+v, want %+v", got, want)
	}
}

func TestClient_GetState_WrapsError(t *testing.T) {
	ft := &fakeTransport{err: errors.New("boom")}
	c := New(ft)

	_, err := c.GetState(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ft.err) {
		t.Errorf("expected wrapped error to unwrap to transport error, got %v", err)
	}
}

func TestClient_Execute_PassesActionThrough(t *testing.T) {
	ft := &fakeTransport{result: ActionResult{Success: true, State: StateComplete}}
	c := New(ft)

	action := PrimitiveAction{Opcode: OpHarvest, Params: map[string]interface{}{"slot": 1}}
	res, err := c.Execute(context.Background(), action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.State != StateComplete {
		t.Errorf("Execute() = %+v, want success/complete", res)
	}
	if ft.executeCall != 1 {
		t.Errorf("expected one transport call, got %d", ft.executeCall)
	}
	if ft.lastAction.Opcode != OpHarvest {
		t.Errorf("expected opcode to pass through, got %s", ft.lastAction.Opcode)
	}
}

func TestClient_Execute_WrapsErrorWithOpcode(t *testing.T) {
	ft := &fakeTransport{err: errors.New("bridge down")}
	c := New(ft)

	_, err := c.Execute(context.Background(), PrimitiveAction{Opcode: OpUseTool})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ft.err) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestClient_CheckPath(t *testing.T) {
	ft := &fakeTransport{path: PathResult{Reachable: true, PathLength: 5}}
	c := New(ft)

	res, err := c.CheckPath(context.Background(), world.Tile{X: 0, Y: 0}, world.Tile{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Reachable || res.PathLength != 5 {
		t.Errorf("CheckPath() = %+v", res)
	}
}

func TestOpcode_SettleInterval(t *testing.T) {
	tests := []struct {
		op   Opcode
		want bool // true means >= CacheRefreshInterval
	}{
		{OpFace, true},
		{OpUseTool, true},
		{OpSwingWeapon, true},
		{OpHarvest, true},
		{OpMoveDirection, true},
	}
	for _, tt := range tests {
		if got := tt.op.SettleInterval(); tt.want && got < CacheRefreshInterval {
			t.Errorf("%s.SettleInterval() = %v, must be >= CacheRefreshInterval %v", tt.op, got, CacheRefreshInterval)
		}
	}
}

func TestSettle_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Settle(ctx, PrimitiveAction{Opcode: OpHarvest})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Settle() on canceled ctx = %v, want context.Canceled", err)
	}
}
