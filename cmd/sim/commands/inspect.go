package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/pkg/cli"
	"github.com/design-automation/mobius-sim-go/pkg/sim"
)

type entCount struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

type attribInfo struct {
	Type     string `json:"type" yaml:"type"`
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
	Values   int    `json:"values" yaml:"values"`
}

type modelInfo struct {
	Location string               `json:"location" yaml:"location"`
	Format   string               `json:"format" yaml:"format"`
	Size     int64                `json:"size" yaml:"size"`
	Entities []entCount           `json:"entities" yaml:"entities"`
	Attribs  []attribInfo         `json:"attribs" yaml:"attribs"`
	Model    map[string]sim.Value `json:"model" yaml:"model"`
}

// sections renders the info for terminal display.
func (in *modelInfo) sections() []cli.Section {
	file := cli.Section{Title: "File", Rows: [][2]string{
		{"location", in.Location},
		{"format", in.Format},
		{"size", cli.FormatBytes(in.Size)},
	}}
	ents := cli.Section{Title: "Entities"}
	for _, c := range in.Entities {
		ents.Rows = append(ents.Rows, [2]string{c.Type, strconv.Itoa(c.Count)})
	}
	atts := cli.Section{Title: "Attributes"}
	for _, a := range in.Attribs {
		atts.Rows = append(atts.Rows, [2]string{
			a.Type + "." + a.Name,
			fmt.Sprintf("%s, %d distinct", a.DataType, a.Values),
		})
	}
	model := cli.Section{Title: "Model"}
	for _, name := range sortedKeys(in.Model) {
		model.Rows = append(model.Rows, [2]string{name, in.Model[name].String()})
	}
	return []cli.Section{file, ents, atts, model}
}

func describeModel(m *sim.Model) (*modelInfo, error) {
	in := &modelInfo{Model: map[string]sim.Value{}}
	for _, t := range sim.EntTypes {
		n, err := m.NumEnts(t)
		if err != nil {
			return nil, err
		}
		in.Entities = append(in.Entities, entCount{Type: t.Plural(), Count: n})

		names, err := m.Attribs(t)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			dt, err := m.AttribDataType(t, name)
			if err != nil {
				return nil, err
			}
			vals, err := m.AttribVals(t, name)
			if err != nil {
				return nil, err
			}
			in.Attribs = append(in.Attribs, attribInfo{
				Type:     t.Plural(),
				Name:     name,
				DataType: string(dt),
				Values:   len(vals),
			})
		}
	}
	for _, name := range m.ModelAttribs() {
		v, _ := m.ModelAttribVal(name)
		in.Model[name] = v
	}
	return in, nil
}

var infoCmd = &cobra.Command{
	Use:   "info <model>",
	Short: "Summarize a model file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, format, err := readFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		m, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		in, err := describeModel(m)
		if err != nil {
			return err
		}
		in.Location, in.Format, in.Size = args[0], string(format), int64(len(data))

		f, err := resolveFormat()
		if err != nil {
			return err
		}
		if f == cli.FormatTable && jqExpr == "" {
			fmt.Print(cli.RenderSections(cli.DefaultStyles, in.sections()...))
			return nil
		}
		return printResult(in)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <model>",
	Short: "Print the underlying graph of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Print(m.String())
		return nil
	},
}

type entRow struct {
	ID    string    `json:"id" yaml:"id"`
	Posis []string  `json:"posis,omitempty" yaml:"posis,omitempty"`
	XYZ   []float64 `json:"xyz,omitempty" yaml:"xyz,omitempty"`
}

type entList []entRow

func (l entList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, r := range l {
		detail := strings.Join(r.Posis, " ")
		if r.XYZ != nil {
			detail = cli.FormatCoords(r.XYZ)
		}
		rows[i] = []string{r.ID, detail}
	}
	return []string{"ID", "POSIS / XYZ"}, rows
}

// listEnts describes ents: positions get their coordinates, other
// entities their positions.
func listEnts(m *sim.Model, ents []string) (entList, error) {
	l := make(entList, 0, len(ents))
	for _, ent := range ents {
		t, err := m.EntType(ent)
		if err != nil {
			return nil, err
		}
		row := entRow{ID: ent}
		if t == sim.Posi {
			if row.XYZ, err = m.PosiCoords(ent); err != nil {
				return nil, err
			}
		} else if row.Posis, err = m.EntPosis(ent); err != nil {
			return nil, err
		}
		l = append(l, row)
	}
	return l, nil
}

var entsOf []string

var entsCmd = &cobra.Command{
	Use:   "ents <model> <type>",
	Short: "List entities of a type",
	Long: `List entities of a type, or with --of, the entities of that type
reachable from the given entities.

Types may be given as prefixes (pg), singular (pgon) or plural (pgons).

Examples:
  sim ents box.sim posis
  sim ents box.sim edges --of pg0
  sim ents box.sim colls --of ps3 -o table`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		t, err := sim.ParseEntType(args[1])
		if err != nil {
			return err
		}
		var ents []string
		if len(entsOf) > 0 {
			ents, err = m.EntsOf(t, entsOf...)
		} else {
			ents, err = m.Ents(t)
		}
		if err != nil {
			return err
		}
		l, err := listEnts(m, ents)
		if err != nil {
			return err
		}
		return printResult(l)
	},
}

// parseValue reads a command-line value as JSON, falling back to a plain
// string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

var queryCmd = &cobra.Command{
	Use:   "query <model> <type> <attrib> <cmp> [value]",
	Short: "Select entities by attribute value",
	Long: `Select entities whose attribute compares true against a value.

The comparator is one of ==, !=, <, <=, >, >=. The value is parsed as JSON
and taken as a string when that fails. Without a value, == selects entities
with no value and != those with any value.

Examples:
  sim query box.sim pgon area '>' 10
  sim query box.sim posi xyz == '[0,0,0]'
  sim query box.sim pline name != `,
	Args: cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		t, err := sim.ParseEntType(args[1])
		if err != nil {
			return err
		}
		cmp, err := sim.ParseComparator(args[3])
		if err != nil {
			return err
		}
		var x any
		if len(args) == 5 {
			x = parseValue(args[4])
		}
		ents, err := m.Query(t, args[2], cmp, x)
		if err != nil {
			return err
		}
		l, err := listEnts(m, ents)
		if err != nil {
			return err
		}
		return printResult(l)
	},
}

func init() {
	entsCmd.Flags().StringSliceVar(&entsOf, "of", nil, "source entities to navigate from")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(entsCmd)
	rootCmd.AddCommand(queryCmd)
}
