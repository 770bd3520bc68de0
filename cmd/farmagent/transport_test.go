package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

func TestHTTPTransport_GetState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Errorf("path = %s, want /state", r.URL.Path)
		}
		json.NewEncoder(w).Encode(world.WorldSnapshot{DayOfYear: 3, Money: 250})
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, 2*time.Second)
	snap, err := tr.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if snap.DayOfYear != 3 || snap.Money != 250 {
		t.Errorf("GetState() = %+v", snap)
	}
}

func TestHTTPTransport_GetState_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bridge unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, 2*time.Second)
	if _, err := tr.GetState(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestHTTPTransport_CheckPath_EncodesQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(bridge.PathResult{Reachable: true, PathLength: 4})
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, 2*time.Second)
	res, err := tr.CheckPath(context.Background(), world.Tile{X: 1, Y: 2}, world.Tile{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("CheckPath: %v", err)
	}
	if !res.Reachable || res.PathLength != 4 {
		t.Errorf("CheckPath() = %+v", res)
	}
	q := gotQuery
	for _, want := range []string{"sx=1", "sy=2", "ex=3", "ey=4"} {
		if !contains(q, want) {
			t.Errorf("query = %q, want to contain %q", q, want)
		}
	}
}

func TestHTTPTransport_Execute_PostsActionAndParsesResult(t *testing.T) {
	var gotAction bridge.PrimitiveAction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotAction)
		json.NewEncoder(w).Encode(bridge.ActionResult{Success: true, State: bridge.StateComplete})
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, 2*time.Second)
	action := bridge.PrimitiveAction{Opcode: bridge.OpHarvest, Params: map[string]interface{}{"target_x": float64(5)}}
	res, err := tr.Execute(context.Background(), action)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.State != bridge.StateComplete {
		t.Errorf("Execute() = %+v", res)
	}
	if gotAction.Opcode != bridge.OpHarvest {
		t.Errorf("server saw opcode %s, want %s", gotAction.Opcode, bridge.OpHarvest)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
