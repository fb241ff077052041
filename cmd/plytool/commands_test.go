package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	t.Cleanup(func() { stdout = prev })
	return buf
}

func TestGenInspectRewrite(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	cube := filepath.Join(dir, "cube.ply")
	sphere := filepath.Join(dir, "sphere.ply")

	if err := runGen([]string{"-n", "500", "-shape", "cube", cube}); err != nil {
		t.Fatalf("gen cube: %v", err)
	}
	if err := runGen([]string{"-n", "300", "-shape", "sphere", "-seed", "7", sphere}); err != nil {
		t.Fatalf("gen sphere: %v", err)
	}

	out.Reset()
	if err := runInspect([]string{"-workers", "2", sphere, cube}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("inspect printed %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], cube) || !strings.Contains(lines[1], "500") {
		t.Errorf("cube row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], sphere) || !strings.Contains(lines[2], "300") {
		t.Errorf("sphere row = %q", lines[2])
	}

	copyPath := filepath.Join(dir, "copy.ply")
	if err := runRewrite([]string{cube, copyPath}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	a, err := os.ReadFile(cube)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(copyPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("rewrite of a generated file changed its bytes")
	}
}

func TestInspectReportsFailures(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ply")
	if err := os.WriteFile(bad, []byte("not a ply file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runInspect([]string{bad, filepath.Join(dir, "missing.ply")})
	if err == nil || !strings.Contains(err.Error(), "2 of 2") {
		t.Fatalf("inspect error = %v, want 2 of 2 failed", err)
	}
	if !strings.Contains(out.String(), "malformed header") {
		t.Errorf("output lacks malformed header status:\n%s", out)
	}
	if !strings.Contains(out.String(), "io:") {
		t.Errorf("output lacks io status:\n%s", out)
	}
}

func TestPlan(t *testing.T) {
	out := captureStdout(t)
	if err := runPlan([]string{"-points", "100000", "-tile", "16384", "-density", "50"}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	// 50000 effective points over 16384-point tiles
	if !strings.Contains(out.String(), "instance_count=4") {
		t.Errorf("plan output:\n%s", out)
	}
}

func TestGenRejectsUnknownShape(t *testing.T) {
	captureStdout(t)
	if err := runGen([]string{"-n", "3", "-shape", "torus", filepath.Join(t.TempDir(), "x.ply")}); err == nil {
		t.Error("gen with an unknown shape succeeded")
	}
}

func TestGeneratedColorsFollowPosition(t *testing.T) {
	points, err := generate("cube", 50, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range points {
		if p.Color.R != channel(p.Position[0]) {
			t.Fatalf("color %v does not match position %v", p.Color, p.Position)
		}
	}
	path := filepath.Join(t.TempDir(), "c.ply")
	captureStdout(t)
	if err := runGen([]string{"-n", "50", "-shape", "cube", "-seed", "3", path}); err != nil {
		t.Fatal(err)
	}
	cloud, err := loader.NewLoader(loader.BackendTypePLY).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cloud.Count() != 50 {
		t.Errorf("Count() = %d, want 50", cloud.Count())
	}
}
