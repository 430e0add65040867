package main

import (
	"testing"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--server", "wss://chat.example/ws", "-r", "ops", "--prefix", "/", "--log-level", "debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	f := cmd.Flags()
	for name, want := range map[string]string{
		"server":    "wss://chat.example/ws",
		"room":      "ops",
		"prefix":    "/",
		"log-level": "debug",
		"token":     "",
	} {
		got, err := f.GetString(name)
		if err != nil {
			t.Fatalf("flag %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("flag %s = %q, want %q", name, got, want)
		}
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"unexpected"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected positional arguments to be rejected")
	}
}

func TestOverridesLeaveUnsetFieldsZero(t *testing.T) {
	cfg := options{room: "ops", transcript: "t.db"}.overrides()
	if cfg.Room != "ops" || cfg.TranscriptPath != "t.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.ServerURL != "" || cfg.CommandPrefix != "" || cfg.LogLevel != "" {
		t.Fatalf("unset flags leaked into overrides: %+v", cfg)
	}
}
