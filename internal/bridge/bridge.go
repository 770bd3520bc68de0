// Package bridge is the thin request/response adapter over the
// in-process game bridge. It is intentionally stateless to the core:
// every call takes a context and returns a value, mirroring how the
// teacher's executor.applyToolTimeout/executeTool wrap each outbound
// call with a per-class timeout before handing off to a registry.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// Opcode identifies a primitive bridge call.
type Opcode string

const (
	OpMoveDirection    Opcode = "move_direction"
	OpMoveTo           Opcode = "move_to"
	OpWarp             Opcode = "warp"
	OpFace             Opcode = "face"
	OpSelectSlot       Opcode = "select_slot"
	OpSelectItemType   Opcode = "select_item_type"
	OpUseTool          Opcode = "use_tool"
	OpInteract         Opcode = "interact"
	OpInteractFacing   Opcode = "interact_facing"
	OpHarvest          Opcode = "harvest"
	OpShip             Opcode = "ship"
	OpEat              Opcode = "eat"
	OpBuy              Opcode = "buy"
	OpPlaceItem        Opcode = "place_item"
	OpCraft            Opcode = "craft"
	OpOpenChest        Opcode = "open_chest"
	OpDepositItem      Opcode = "deposit_item"
	OpWithdrawItem     Opcode = "withdraw_item"
	OpEnterMineLevel   Opcode = "enter_mine_level"
	OpUseLadder        Opcode = "use_ladder"
	OpSwingWeapon      Opcode = "swing_weapon"
	OpDismissMenu      Opcode = "dismiss_menu"
	OpConfirmDialog    Opcode = "confirm_dialog"
	OpGoToBed          Opcode = "go_to_bed"
)

// SettleInterval returns the minimum wait between submitting a
// primitive of this class and trusting a fresh snapshot. Must be >=
// the bridge's state-cache refresh period (CacheRefreshInterval).
func (o Opcode) SettleInterval() time.Duration {
	switch o {
	case OpFace:
		return 250 * time.Millisecond
	case OpUseTool, OpSwingWeapon:
		return 500 * time.Millisecond
	case OpHarvest:
		return 300 * time.Millisecond
	case OpDismissMenu, OpConfirmDialog, OpSelectSlot, OpSelectItemType:
		return 300 * time.Millisecond
	default:
		return 300 * time.Millisecond
	}
}

// CacheRefreshInterval is the bridge's state-cache refresh period (~250ms).
const CacheRefreshInterval = 250 * time.Millisecond

// CallTimeout is the per-call transport timeout (§5: 5s per bridge call).
const CallTimeout = 5 * time.Second

// PrimitiveAction is one bridge call: an opcode plus a parameter bag.
type PrimitiveAction struct {
	Opcode Opcode                 `json:"opcode"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// ActionState is the bridge's reported state for an action.
type ActionState string

const (
	StateComplete   ActionState = "complete"
	StatePerforming ActionState = "performing"
	StateFailed     ActionState = "failed"
)

// ActionResult is the bridge's response to POST /action.
type ActionResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	State   ActionState `json:"state"`
}

// PathResult is the bridge's response to GET /check-path.
type PathResult struct {
	Reachable  bool `json:"reachable"`
	PathLength int  `json:"path_length"`
}

// Transport is the minimal wire-level contract the Client drives. A
// production binary wires an in-process HTTP client satisfying this;
// tests supply a fake.
type Transport interface {
	GetState(ctx context.Context) (world.WorldSnapshot, error)
	GetSurroundings(ctx context.Context) (world.Surroundings, error)
	GetFarm(ctx context.Context) (world.FarmSnapshot, error)
	CheckPath(ctx context.Context, from, to world.Tile) (PathResult, error)
	Execute(ctx context.Context, action PrimitiveAction) (ActionResult, error)
}

// Client is the single pooled adapter all bridge operations flow
// through. It owns no world state itself.
type Client struct {
	transport Transport
	logger    *logging.Logger
}

// New wraps a Transport with logging and timeouts.
func New(t Transport) *Client {
	return &Client{transport: t, logger: logging.New().WithComponent("bridge")}
}

func withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, CallTimeout)
}

// GetState fetches the current WorldSnapshot.
func (c *Client) GetState(ctx context.Context) (snap world.WorldSnapshot, err error) {
	ctx, span := startCallSpan(ctx, "", "get_state")
	defer func() { endCallSpan(span, err) }()

	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	snap, err = c.transport.GetState(ctx)
	if err != nil {
		err = fmt.Errorf("bridge get_state: %w", err)
		return world.WorldSnapshot{}, err
	}
	return snap, nil
}

// GetSurroundings fetches the four adjacent tiles.
func (c *Client) GetSurroundings(ctx context.Context) (s world.Surroundings, err error) {
	ctx, span := startCallSpan(ctx, "", "get_surroundings")
	defer func() { endCallSpan(span, err) }()

	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	s, err = c.transport.GetSurroundings(ctx)
	if err != nil {
		err = fmt.Errorf("bridge get_surroundings: %w", err)
		return world.Surroundings{}, err
	}
	return s, nil
}

// GetFarm fetches the world beyond the adjacent radius.
func (c *Client) GetFarm(ctx context.Context) (f world.FarmSnapshot, err error) {
	ctx, span := startCallSpan(ctx, "", "get_farm")
	defer func() { endCallSpan(span, err) }()

	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	f, err = c.transport.GetFarm(ctx)
	if err != nil {
		err = fmt.Errorf("bridge get_farm: %w", err)
		return world.FarmSnapshot{}, err
	}
	return f, nil
}

// CheckPath asks the bridge's pathfinder whether to is reachable from from.
func (c *Client) CheckPath(ctx context.Context, from, to world.Tile) (r PathResult, err error) {
	ctx, span := startCallSpan(ctx, "", "check_path")
	defer func() { endCallSpan(span, err) }()

	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	r, err = c.transport.CheckPath(ctx, from, to)
	if err != nil {
		err = fmt.Errorf("bridge check_path: %w", err)
		return PathResult{}, err
	}
	return r, nil
}

// Execute submits one primitive and waits for the bridge's response.
// It does not wait out the settle interval; callers do that explicitly
// so batch callers can pipeline the wait against other bookkeeping.
func (c *Client) Execute(ctx context.Context, action PrimitiveAction) (result ActionResult, err error) {
	ctx, span := startCallSpan(ctx, action.Opcode, "execute")
	defer func() { endCallSpan(span, err) }()

	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	res, err := c.transport.Execute(ctx, action)
	if err != nil {
		c.logger.Error("primitive transport failure", map[string]interface{}{
			"opcode": string(action.Opcode),
			"error":  err.Error(),
		})
		err = fmt.Errorf("bridge execute %s: %w", action.Opcode, err)
		return ActionResult{State: StateFailed}, err
	}
	if !res.Success {
		c.logger.Warn("primitive reported failure", map[string]interface{}{
			"opcode":  string(action.Opcode),
			"message": res.Message,
			"error":   res.Error,
		})
	}
	return res, nil
}

// Settle sleeps out the settle interval appropriate to action's opcode,
// honoring context cancellation.
func Settle(ctx context.Context, action PrimitiveAction) error {
	timer := time.NewTimer(action.Opcode.SettleInterval())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
