package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/design-automation/mobius-sim-go/cmd/sim/internal/config"
)

const testScene = `
posis: [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0]]
points: [0]
plines:
  - posis: [0, 2]
pgons:
  - posis: [0, 1, 2, 3]
colls:
  - plines: [0]
    pgons: [0]
attribs:
  - {type: pgon, name: area, data_type: number, values: {0: 1}}
  - {type: posi, name: label, data_type: string, values: {0: origin, 2: far}}
model:
  title: unit square
`

// setupTestEnv points the CLI at a fresh config directory and returns a
// scratch directory for model files.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	return t.TempDir()
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
			return
		}
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// buildTestModel writes testScene and builds it into dir/name.
func buildTestModel(t *testing.T, dir, name string) string {
	t.Helper()
	scene := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(scene, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	stdout, stderr, code := runCmd(t, "build", scene, "-w", path)
	if code != 0 {
		t.Fatalf("build: exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Wrote") {
		t.Fatalf("build output = %q", stdout)
	}
	return path
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasPrefix(stdout, "sim ") {
		t.Fatalf("expected 'sim', got: %s", stdout)
	}

	stdout, _, code = runCmd(t, "version", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestBuild_Info(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")

	stdout, stderr, code := runCmd(t, "info", path, "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	in := decodeJSON[modelInfo](t, stdout)
	counts := map[string]int{}
	for _, c := range in.Entities {
		counts[c.Type] = c.Count
	}
	want := map[string]int{"posis": 4, "verts": 7, "edges": 5, "wires": 2, "points": 1, "plines": 1, "pgons": 1, "colls": 1}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("%s = %d, want %d", k, counts[k], n)
		}
	}
	if in.Format != "json" || in.Size == 0 {
		t.Fatalf("format = %q, size = %d", in.Format, in.Size)
	}
	var names []string
	for _, a := range in.Attribs {
		names = append(names, a.Type+"."+a.Name)
	}
	if got := strings.Join(names, " "); got != "posis.xyz posis.label pgons.area" {
		t.Fatalf("attribs = %q", got)
	}
	if v, ok := in.Model["title"].Text(); !ok || v != "unit square" {
		t.Fatalf("title = %v", in.Model["title"])
	}

	stdout, _, code = runCmd(t, "info", path, "-o", "table")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"Entities", "pgons", "area", "unit square"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table info missing %q:\n%s", want, stdout)
		}
	}
}

func TestBuild_Print(t *testing.T) {
	dir := setupTestEnv(t)
	scene := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(scene, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCmd(t, "build", scene, "-o", "json", "--jq", ".geometry.num_posis")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "4" {
		t.Fatalf("num_posis = %q, want 4", stdout)
	}
}

func TestBuild_BadScene(t *testing.T) {
	dir := setupTestEnv(t)
	scene := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(scene, []byte("posis: [[0,0,0]]\nplines:\n  - posis: [0, 5]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, stderr, code := runCmd(t, "build", scene, "-w", filepath.Join(dir, "bad.sim"))
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !strings.Contains(stderr, "out of range") {
		t.Fatalf("expected 'out of range', got: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.sim")); !os.IsNotExist(err) {
		t.Fatalf("bad.sim written: %v", err)
	}
}

func TestEnts(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")

	stdout, stderr, code := runCmd(t, "ents", path, "posis", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	posis := decodeJSON[[]entRow](t, stdout)
	if len(posis) != 4 || posis[2].ID != "ps2" || posis[2].XYZ[0] != 1 || posis[2].XYZ[1] != 1 {
		t.Fatalf("posis = %+v", posis)
	}

	stdout, _, code = runCmd(t, "ents", path, "edges", "--of", "pg0", "-o", "json", "--jq", "[.[].id]")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if got := decodeJSON[[]string](t, stdout); len(got) != 4 {
		t.Fatalf("edges of pg0 = %v, want 4", got)
	}

	stdout, _, code = runCmd(t, "ents", path, "colls", "--of", "ps2", "-o", "table")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "co0") {
		t.Fatalf("colls of ps2 table = %s", stdout)
	}

	if _, _, code := runCmd(t, "ents", path, "blobs"); code == 0 {
		t.Fatal("expected non-zero exit for unknown type")
	}
}

func TestQuery(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")

	ids := func(args ...string) []string {
		t.Helper()
		args = append(append([]string{"query", path}, args...), "-o", "json", "--jq", "[.[].id]")
		stdout, stderr, code := runCmd(t, args...)
		if code != 0 {
			t.Fatalf("query %v: exit %d: %s", args, code, stderr)
		}
		return decodeJSON[[]string](t, stdout)
	}

	if got := ids("pgon", "area", ">", "0.5"); len(got) != 1 || got[0] != "pg0" {
		t.Fatalf("area > 0.5 = %v, want [pg0]", got)
	}
	if got := ids("posi", "label", "==", "far"); len(got) != 1 || got[0] != "ps2" {
		t.Fatalf("label == far = %v, want [ps2]", got)
	}
	if got := ids("posi", "label", "=="); len(got) != 2 || got[0] != "ps1" || got[1] != "ps3" {
		t.Fatalf("label == nil = %v, want [ps1 ps3]", got)
	}
	if got := ids("posi", "xyz", "==", "[1,0,0]"); len(got) != 1 || got[0] != "ps1" {
		t.Fatalf("xyz == [1,0,0] = %v, want [ps1]", got)
	}

	if _, _, code := runCmd(t, "query", path, "pgon", "area", "~", "1"); code == 0 {
		t.Fatal("expected non-zero exit for bad comparator")
	}
	if _, _, code := runCmd(t, "query", path, "pgon", "nope", "==", "1"); code == 0 {
		t.Fatal("expected non-zero exit for unknown attribute")
	}
}

func TestConvert_Validate(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")
	out := filepath.Join(dir, "box.simb")

	stdout, stderr, code := runCmd(t, "convert", path, out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Converted") {
		t.Fatalf("convert output = %q", stdout)
	}

	stdout, _, code = runCmd(t, "info", out, "-o", "json", "--jq", ".format")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if strings.TrimSpace(stdout) != `"msgpack"` {
		t.Fatalf("format = %s", stdout)
	}

	for _, p := range []string{path, out} {
		stdout, stderr, code := runCmd(t, "validate", p)
		if code != 0 {
			t.Fatalf("validate %s: exit %d: %s", p, code, stderr)
		}
		if !strings.Contains(stdout, "valid (4 posis") {
			t.Fatalf("validate output = %q", stdout)
		}
	}

	bad := filepath.Join(dir, "bad.sim")
	if err := os.WriteFile(bad, []byte(`{"type":"SIM","geometry":{"num_posis":"four"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, code := runCmd(t, "validate", bad); code == 0 {
		t.Fatal("expected non-zero exit for invalid document")
	}
	if _, _, code := runCmd(t, "convert", path, filepath.Join(dir, "box.txt")); code == 0 {
		t.Fatal("expected non-zero exit for unknown extension")
	}
}

func TestDump(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")

	stdout, _, code := runCmd(t, "dump", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"GRAPH", "pg0", "SSID = 0 (active)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dump missing %q", want)
		}
	}
}

func TestSchema(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "schema")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{`"geometry"`, `"num_posis"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("schema missing %s", want)
		}
	}
}

func TestArchive(t *testing.T) {
	dir := setupTestEnv(t)
	path := buildTestModel(t, dir, "box.sim")

	for range 2 {
		stdout, stderr, code := runCmd(t, "archive", "save", "box", path)
		if code != 0 {
			t.Fatalf("save: exit %d: %s", code, stderr)
		}
		if !strings.Contains(stdout, "Saved box") {
			t.Fatalf("save output = %q", stdout)
		}
	}

	stdout, _, code := runCmd(t, "archive", "list", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	heads := decodeJSON[[]headRow](t, stdout)
	if len(heads) != 1 || heads[0].Name != "box" {
		t.Fatalf("heads = %+v", heads)
	}

	stdout, _, code = runCmd(t, "archive", "list", "box", "-o", "json", "--jq", "[.[].id]")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	revs := decodeJSON[[]string](t, stdout)
	if len(revs) != 2 || revs[1] != heads[0].Head {
		t.Fatalf("revisions = %v, head %s", revs, heads[0].Head)
	}

	out := filepath.Join(dir, "restored.simb")
	if _, stderr, code := runCmd(t, "archive", "load", "box", revs[0], "-w", out); code != 0 {
		t.Fatalf("load: exit %d: %s", code, stderr)
	}
	stdout, _, code = runCmd(t, "ents", out, "pgons", "-o", "json", "--jq", "length")
	if code != 0 || strings.TrimSpace(stdout) != "1" {
		t.Fatalf("restored pgons = %q (exit %d)", stdout, code)
	}

	if _, stderr, code := runCmd(t, "archive", "delete", "box", revs[1]); code != 0 {
		t.Fatalf("delete rev: exit %d: %s", code, stderr)
	}
	stdout, _, _ = runCmd(t, "archive", "list", "-o", "json", "--jq", ".[0].head")
	if strings.TrimSpace(stdout) != `"`+revs[0]+`"` {
		t.Fatalf("head after delete = %s, want %s", stdout, revs[0])
	}

	if _, _, code := runCmd(t, "archive", "delete", "box"); code != 0 {
		t.Fatal("delete all failed")
	}
	_, stderr, code := runCmd(t, "archive", "list", "box")
	if code == 0 || !strings.Contains(stderr, "not found") {
		t.Fatalf("list after delete: exit %d, %s", code, stderr)
	}
}

func TestConfig(t *testing.T) {
	setupTestEnv(t)

	if _, stderr, code := runCmd(t, "config", "set", "output", "json"); code != 0 {
		t.Fatalf("set: exit %d: %s", code, stderr)
	}
	stdout, _, _ := runCmd(t, "config", "get", "output")
	if strings.TrimSpace(stdout) != "json" {
		t.Fatalf("output = %q, want json", stdout)
	}

	stdout, _, code := runCmd(t, "config", "show")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	rows := decodeJSON[[]settingRow](t, stdout)
	if len(rows) != len(config.Keys) || rows[0].Key != "output" || rows[0].Value != "json" {
		t.Fatalf("show = %+v", rows)
	}

	if _, _, code := runCmd(t, "config", "set", "output", "xml"); code == 0 {
		t.Fatal("expected non-zero exit for bad output format")
	}
	if _, _, code := runCmd(t, "config", "set", "nope", "x"); code == 0 {
		t.Fatal("expected non-zero exit for unknown key")
	}

	stdout, _, _ = runCmd(t, "config", "path")
	if !strings.HasSuffix(strings.TrimSpace(stdout), "settings.yaml") {
		t.Fatalf("path = %q", stdout)
	}
}

func TestLogFormat_Invalid(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "version", "--log-format", "xml")
	if code == 0 || !strings.Contains(stderr, "log format") {
		t.Fatalf("exit %d, %s", code, stderr)
	}
}
