package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type rows [][]string

func (r rows) Table() ([]string, [][]string) { return []string{"id", "type"}, r }

func TestOutput(t *testing.T) {
	data := map[string]any{"name": "tower", "posis": 4}

	var buf bytes.Buffer
	if err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if got["name"] != "tower" {
		t.Fatalf("name = %v, want tower", got["name"])
	}

	buf.Reset()
	if err := Output(data, OutputOptions{Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: tower") {
		t.Fatalf("yaml output = %q", buf.String())
	}

	buf.Reset()
	if err := Output("plain", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain" {
		t.Fatalf("raw output = %q", buf.String())
	}

	buf.Reset()
	if err := Output(rows{{"ps0", "posi"}, {"pt0", "point"}}, OutputOptions{Format: FormatTable, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"id", "ps0", "point"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, buf.String())
		}
	}

	if err := Output(data, OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Fatal("Output(xml) = nil error")
	}
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output([]int{1, 2}, OutputOptions{Format: FormatJSON, File: path, Indent: "\t"}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[\n\t1,\n\t2\n]\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatYAML, "json": FormatJSON, "table": FormatTable} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOutputFormat("csv"); err == nil {
		t.Fatal("ParseOutputFormat(csv) = nil error")
	}
}

func TestFilter(t *testing.T) {
	data := map[string]any{"ents": []string{"ps0", "ps1", "pt0"}, "n": 3}
	for _, tc := range []struct{ expr, want string }{
		{".n", `3`},
		{".ents[1]", `"ps1"`},
		{".ents[]", `["ps0","ps1","pt0"]`},
		{`[.ents[] | select(startswith("ps"))]`, `["ps0","ps1"]`},
		{"empty", `[]`},
	} {
		expr, want := tc.expr, tc.want
		got, err := Filter(data, expr)
		if err != nil {
			t.Errorf("Filter(%s): %v", expr, err)
			continue
		}
		b, _ := json.Marshal(got)
		if string(b) != want {
			t.Errorf("Filter(%s) = %s, want %s", expr, b, want)
		}
	}
	if _, err := Filter(data, ".["); err == nil {
		t.Fatal("Filter(.[) = nil error")
	}
	if _, err := Filter(data, `error("boom")`); err == nil {
		t.Fatal("Filter(error) = nil error")
	}
}

func TestParseFile(t *testing.T) {
	type scene struct {
		Name  string      `yaml:"name" json:"name"`
		Posis [][]float64 `yaml:"posis" json:"posis"`
	}
	for name, data := range map[string]string{
		"s.yaml": "name: box\nposis:\n  - [0, 0, 0]\n  - [1, 0, 0]\n",
		"s.json": `{"name":"box","posis":[[0,0,0],[1,0,0]]}`,
		"s.txt":  `{"name": "box", "posis": [[0,0,0],[1,0,0]]}`,
	} {
		var s scene
		if err := ParseFile([]byte(data), name, &s); err != nil {
			t.Errorf("ParseFile(%s): %v", name, err)
			continue
		}
		if s.Name != "box" || len(s.Posis) != 2 || s.Posis[1][0] != 1 {
			t.Errorf("ParseFile(%s) = %+v", name, s)
		}
	}
	var s scene
	if err := ParseFile([]byte("{"), "bad.json", &s); err == nil {
		t.Fatal("ParseFile(bad json) = nil error")
	}

	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte("name: tower\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(path, &s); err != nil || s.Name != "tower" {
		t.Fatalf("LoadFile = %+v, %v", s, err)
	}
}

func TestFormat(t *testing.T) {
	for n, want := range map[int64]string{0: "0 B", 1536: "1.50 KB", 3 << 20: "3.00 MB"} {
		if got := FormatBytes(n); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
	if got := FormatCoords([]float64{1, 2.5, -3}); got != "(1, 2.5, -3)" {
		t.Fatalf("FormatCoords = %q", got)
	}
	if got := FormatCoords(nil); got != "-" {
		t.Fatalf("FormatCoords(nil) = %q", got)
	}
}

func TestRenderSections(t *testing.T) {
	out := RenderSections(DefaultStyles,
		Section{Title: "Entities", Rows: [][2]string{{"posis", "4"}, {"pgons", "1"}}},
		Section{Title: "Attributes"},
	)
	for _, want := range []string{"Entities", "posis", "4", "Attributes", "(none)"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSections missing %q:\n%s", want, out)
		}
	}
}
