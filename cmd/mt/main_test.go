package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	v := struct {
		DominantIntent string         `json:"dominantIntent"`
		Scores         map[string]int `json:"scores"`
	}{"learning", map[string]int{"learning": 3}}

	var buf bytes.Buffer
	if err := render(&buf, "yaml", v); err != nil {
		t.Fatalf("render(yaml) error = %v", err)
	}
	if !strings.Contains(buf.String(), "dominantIntent: learning") {
		t.Errorf("yaml output should use JSON field names:\n%s", buf.String())
	}

	buf.Reset()
	if err := render(&buf, "JSON", v); err != nil {
		t.Fatalf("render(json) error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["dominantIntent"] != "learning" {
		t.Errorf("decoded = %v", decoded)
	}

	if err := render(&buf, "xml", v); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCommandTree(t *testing.T) {
	if statusCmd().Name() != "status" || searchCmd().Name() != "search" {
		t.Error("unexpected command names")
	}

	consent := consentCmd()
	var names []string
	for _, c := range consent.Commands() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "grant,revoke" {
		t.Errorf("consent subcommands = %v", names)
	}

	if f := exportCmd().Flags().Lookup("format"); f == nil || f.DefValue != "json" {
		t.Error("export --format should default to json")
	}
}
