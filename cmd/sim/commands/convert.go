package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/pkg/cli"
	"github.com/design-automation/mobius-sim-go/pkg/sim"
	"github.com/design-automation/mobius-sim-go/pkg/simio"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a model file between JSON and msgpack",
	Long: `Read a model file and write it again in the format of the output
extension: .sim or .json for JSON, .simb or .msgpack for msgpack.

The model is imported and exported on the way, so the output is normalized:
unused attribute values are dropped and entities are renumbered in order.

Examples:
  sim convert box.sim box.simb
  sim convert s3://models/box.simb box.sim`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := simio.Export(m)
		if err != nil {
			return err
		}
		n, err := writeDocument(cmd.Context(), args[1], doc)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Converted %s -> %s (%s)", args[0], args[1], cli.FormatBytes(int64(n)))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <model>",
	Short: "Check a model file",
	Long: `Check that a model file decodes and imports cleanly. JSON files are
also checked against the document schema.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, format, err := readFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if format == simio.FormatJSON {
			if err := simio.Validate(data); err != nil {
				return err
			}
		}
		doc, err := simio.Decode(data, format)
		if err != nil {
			return err
		}
		m := sim.New(sim.WithLogger(slog.Default()))
		if err := simio.Import(m, doc); err != nil {
			return err
		}
		cli.PrintSuccess("%s is valid (%d posis, %d points, %d plines, %d pgons, %d colls)",
			args[0], doc.Geometry.NumPosis, len(doc.Geometry.Points),
			len(doc.Geometry.Plines), len(doc.Geometry.Pgons), len(doc.Geometry.CollPoints))
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of model files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := simio.Schema()
		if err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		format := cli.FormatJSON
		if outputFormat != "" {
			if format, err = cli.ParseOutputFormat(outputFormat); err != nil {
				return err
			}
		}
		return cli.Output(s, cli.OutputOptions{Format: format, File: outputFile})
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
}
