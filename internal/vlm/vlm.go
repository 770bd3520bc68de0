// Package vlm defines the typed interface to the Vision-Language Model
// collaborator (§6). The VLM itself, the screenshot capture, and the
// HTTP transport are explicitly out of scope (§1); this package only
// fixes the contract and the tolerant JSON extractor the core uses to
// turn a loose text response into a typed union of proposed actions.
package vlm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
)

// ProposedAction is one action the VLM proposed, expressed as the
// loosely-typed opcode+params the tolerant extractor recovered.
type ProposedAction struct {
	Type   string                 `json:"type"` // either a bridge.Opcode or a skill name
	Params map[string]interface{} `json:"-"`
}

// Response is the parsed VLM turn: reasoning text plus an ordered list
// of proposed actions.
type Response struct {
	Reasoning string
	Actions   []ProposedAction
}

// Provider is the minimal contract this core assumes about the VLM:
// an (image, prompt) in, text out call. Screenshot capture and the
// HTTP client are supplied externally.
type Provider interface {
	Complete(ctx context.Context, imagePNG []byte, prompt string) (string, error)
}

var jsonObjectRE = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse extracts the embedded JSON object from raw VLM text,
// stripping code fences, locating the outermost {...}, and attempting
// a lightweight repair for missing commas before giving up. Any parse
// failure is a VLMParseFailure, handled by the caller as a no-op tick
// (§4.1, §7).
func ParseResponse(raw string) (Response, error) {
	cleaned := stripCodeFences(raw)
	match := jsonObjectRE.FindString(cleaned)
	if match == "" {
		return Response{}, fmt.Errorf("no JSON object found in VLM response")
	}

	var parsed struct {
		Reasoning string                   `json:"reasoning"`
		Actions   []map[string]interface{} `json:"actions"`
	}
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		repaired := repairMissingCommas(match)
		if err2 := json.Unmarshal([]byte(repaired), &parsed); err2 != nil {
			return Response{}, fmt.Errorf("parse VLM JSON: %w", err)
		}
	}

	actions := make([]ProposedAction, 0, len(parsed.Actions))
	for _, a := range parsed.Actions {
		t, _ := a["type"].(string)
		if t == "" {
			continue
		}
		params := make(map[string]interface{}, len(a)-1)
		for k, v := range a {
			if k != "type" {
				params[k] = v
			}
		}
		actions = append(actions, ProposedAction{Type: t, Params: params})
	}

	return Response{Reasoning: parsed.Reasoning, Actions: actions}, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}

// repairMissingCommas is a lightweight heuristic: insert a comma
// between `}{`, `}`-newline-`{` and `]`-newline-`[` pairs that are almost
// certainly missing one. It does not attempt a full recovery parser.
func repairMissingCommas(s string) string {
	replacer := strings.NewReplacer(
		"}\n{", "},\n{",
		"}{", "},{",
		"]\n[", "],\n[",
	)
	return replacer.Replace(s)
}

// AsPrimitive converts a ProposedAction into a bridge primitive if its
// type names a raw opcode rather than a skill.
func (p ProposedAction) AsPrimitive() (bridge.PrimitiveAction, bool) {
	for _, op := range []bridge.Opcode{
		bridge.OpMoveDirection, bridge.OpMoveTo, bridge.OpWarp, bridge.OpFace,
		bridge.OpSelectSlot, bridge.OpSelectItemType, bridge.OpUseTool, bridge.OpInteract,
		bridge.OpInteractFacing, bridge.OpHarvest, bridge.OpShip, bridge.OpEat, bridge.OpBuy,
		bridge.OpPlaceItem, bridge.OpCraft, bridge.OpOpenChest, bridge.OpDepositItem,
		bridge.OpWithdrawItem, bridge.OpEnterMineLevel, bridge.OpUseLadder, bridge.OpSwingWeapon,
		bridge.OpDismissMenu, bridge.OpConfirmDialog, bridge.OpGoToBed,
	} {
		if string(op) == p.Type {
			return bridge.PrimitiveAction{Opcode: op, Params: p.Params}, true
		}
	}
	return bridge.PrimitiveAction{}, false
}
