package commands

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/pkg/cli"
	"github.com/design-automation/mobius-sim-go/pkg/sim"
	"github.com/design-automation/mobius-sim-go/pkg/simio"
)

// scene is a hand-written model description. Entities refer to each other
// by index into their own list, e.g. a pline's posis index Posis.
type scene struct {
	Posis   [][]float64    `yaml:"posis" json:"posis"`
	Points  []int          `yaml:"points" json:"points"`
	Plines  []scenePline   `yaml:"plines" json:"plines"`
	Pgons   []scenePgon    `yaml:"pgons" json:"pgons"`
	Colls   []sceneColl    `yaml:"colls" json:"colls"`
	Attribs []sceneAttrib  `yaml:"attribs" json:"attribs"`
	Model   map[string]any `yaml:"model" json:"model"`
}

type scenePline struct {
	Posis  []int `yaml:"posis" json:"posis"`
	Closed bool  `yaml:"closed" json:"closed"`
}

type scenePgon struct {
	Posis []int   `yaml:"posis" json:"posis"`
	Holes [][]int `yaml:"holes" json:"holes"`
}

type sceneColl struct {
	Points []int `yaml:"points" json:"points"`
	Plines []int `yaml:"plines" json:"plines"`
	Pgons  []int `yaml:"pgons" json:"pgons"`
	Colls  []int `yaml:"colls" json:"colls"`
}

// sceneAttrib sets values by entity index. The index counts entities of
// the attribute's type in creation order, so verts, edges and wires can be
// addressed as well.
type sceneAttrib struct {
	Type     string      `yaml:"type" json:"type"`
	Name     string      `yaml:"name" json:"name"`
	DataType string      `yaml:"data_type" json:"data_type"`
	Values   map[int]any `yaml:"values" json:"values"`
}

// buildScene creates a model from s.
func buildScene(s *scene) (*sim.Model, error) {
	m := sim.New(sim.WithLogger(slog.Default()))

	posis := make([]string, len(s.Posis))
	for i, xyz := range s.Posis {
		p, err := m.AddPosi(xyz)
		if err != nil {
			return nil, fmt.Errorf("posis[%d]: %w", i, err)
		}
		posis[i] = p
	}
	ref := func(list []string, kind string, i int) (string, error) {
		if i < 0 || i >= len(list) {
			return "", fmt.Errorf("%s index %d out of range (have %d)", kind, i, len(list))
		}
		return list[i], nil
	}
	refs := func(list []string, kind string, idx []int) ([]string, error) {
		out := make([]string, len(idx))
		for j, i := range idx {
			r, err := ref(list, kind, i)
			if err != nil {
				return nil, err
			}
			out[j] = r
		}
		return out, nil
	}

	points := make([]string, len(s.Points))
	for i, pi := range s.Points {
		p, err := ref(posis, "posi", pi)
		if err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		if points[i], err = m.AddPoint(p); err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
	}

	plines := make([]string, len(s.Plines))
	for i, pl := range s.Plines {
		ps, err := refs(posis, "posi", pl.Posis)
		if err != nil {
			return nil, fmt.Errorf("plines[%d]: %w", i, err)
		}
		if plines[i], err = m.AddPline(ps, pl.Closed); err != nil {
			return nil, fmt.Errorf("plines[%d]: %w", i, err)
		}
	}

	pgons := make([]string, len(s.Pgons))
	for i, pg := range s.Pgons {
		boundary, err := refs(posis, "posi", pg.Posis)
		if err != nil {
			return nil, fmt.Errorf("pgons[%d]: %w", i, err)
		}
		holes := make([][]string, len(pg.Holes))
		for j, h := range pg.Holes {
			if holes[j], err = refs(posis, "posi", h); err != nil {
				return nil, fmt.Errorf("pgons[%d].holes[%d]: %w", i, j, err)
			}
		}
		if pgons[i], err = m.AddPgonWithHoles(boundary, holes...); err != nil {
			return nil, fmt.Errorf("pgons[%d]: %w", i, err)
		}
	}

	colls := make([]string, len(s.Colls))
	for i := range s.Colls {
		c, err := m.AddColl()
		if err != nil {
			return nil, err
		}
		colls[i] = c
	}
	for i, c := range s.Colls {
		var members []string
		for _, g := range []struct {
			list []string
			kind string
			idx  []int
		}{
			{points, "point", c.Points},
			{plines, "pline", c.Plines},
			{pgons, "pgon", c.Pgons},
			{colls, "coll", c.Colls},
		} {
			ents, err := refs(g.list, g.kind, g.idx)
			if err != nil {
				return nil, fmt.Errorf("colls[%d]: %w", i, err)
			}
			members = append(members, ents...)
		}
		for _, ent := range members {
			if err := m.AddCollEnt(colls[i], ent); err != nil {
				return nil, fmt.Errorf("colls[%d]: %w", i, err)
			}
		}
	}

	for i, a := range s.Attribs {
		if err := applyAttrib(m, a); err != nil {
			return nil, fmt.Errorf("attribs[%d] %s: %w", i, a.Name, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s.Model)) {
		if err := m.SetModelAttribVal(name, s.Model[name]); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}
	return m, nil
}

func applyAttrib(m *sim.Model, a sceneAttrib) error {
	t, err := sim.ParseEntType(a.Type)
	if err != nil {
		return err
	}
	dt, err := sim.ParseDataType(a.DataType)
	if err != nil {
		return err
	}
	if err := m.AddAttrib(t, a.Name, dt); err != nil {
		return err
	}
	ents, err := m.Ents(t)
	if err != nil {
		return err
	}
	for _, i := range slices.Sorted(maps.Keys(a.Values)) {
		if i < 0 || i >= len(ents) {
			return fmt.Errorf("%s index %d out of range (have %d)", t.Plural(), i, len(ents))
		}
		if err := m.SetAttribVal(ents[i], a.Name, a.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

var buildWrite string

var buildCmd = &cobra.Command{
	Use:   "build <scene.yaml>",
	Short: "Build a model file from a scene description",
	Long: `Build a model from a YAML (or JSON) scene description.

Entities refer to earlier entities by index. Attribute values are keyed by
the index of the entity among all entities of the attribute's type.

  posis: [[0,0,0], [1,0,0], [1,1,0], [0,1,0]]
  pgons:
    - posis: [0, 1, 2, 3]
  colls:
    - pgons: [0]
  attribs:
    - {type: pgon, name: area, data_type: number, values: {0: 1}}
  model:
    title: unit square

Without --write the model document is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s scene
		if err := cli.LoadFile(args[0], &s); err != nil {
			return err
		}
		m, err := buildScene(&s)
		if err != nil {
			return fmt.Errorf("build %s: %w", args[0], err)
		}
		doc, err := simio.Export(m)
		if err != nil {
			return err
		}
		if buildWrite == "" {
			return printResult(doc)
		}
		n, err := writeDocument(cmd.Context(), buildWrite, doc)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s (%s)", buildWrite, cli.FormatBytes(int64(n)))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildWrite, "write", "w", "", "model file to write (.sim, .simb or s3://...)")
	rootCmd.AddCommand(buildCmd)
}
