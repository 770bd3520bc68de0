package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveStoragePath_Empty(t *testing.T) {
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".local", "farmagent")
	if got := resolveStoragePath(""); got != want {
		t.Errorf("resolveStoragePath(\"\") = %q, want %q", got, want)
	}
}

func TestResolveStoragePath_ExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := resolveStoragePath("~/farm-data")
	want := filepath.Join(home, "farm-data")
	if got != want {
		t.Errorf("resolveStoragePath(~) = %q, want %q", got, want)
	}
}

func TestResolveStoragePath_AbsolutePathPassesThrough(t *testing.T) {
	if got := resolveStoragePath("/var/lib/farmagent"); got != "/var/lib/farmagent" {
		t.Errorf("resolveStoragePath(abs) = %q, want unchanged", got)
	}
}

func TestResolveStoragePath_RelativePathPassesThrough(t *testing.T) {
	got := resolveStoragePath("data/farmagent")
	if got != "data/farmagent" {
		t.Errorf("resolveStoragePath(rel) = %q, want unchanged", got)
	}
	if strings.HasPrefix(got, "~") {
		t.Error("unexpected tilde expansion for a plain relative path")
	}
}
