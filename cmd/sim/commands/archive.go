package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/pkg/archive"
	"github.com/design-automation/mobius-sim-go/pkg/cli"
	"github.com/design-automation/mobius-sim-go/pkg/kv"
)

// openArchive opens the archive database configured for the CLI. The
// returned close func must be called when done.
func openArchive() (*archive.Archive, func() error, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{
		Dir:      cfg.ArchiveDir(),
		InMemory: cfg.Archive.InMemory,
		Logger:   slog.Default(),
	})
	if err != nil {
		return nil, nil, err
	}
	return archive.New(store, &archive.Options{Logger: slog.Default()}), store.Close, nil
}

type recordList []archive.Record

func (l recordList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{r.Name, r.ID, r.Created.Local().Format(time.DateTime)}
	}
	return []string{"NAME", "REVISION", "CREATED"}, rows
}

type headRow struct {
	Name string `json:"name" yaml:"name"`
	Head string `json:"head" yaml:"head"`
}

type headList []headRow

func (l headList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{r.Name, r.Head}
	}
	return []string{"NAME", "HEAD"}, rows
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Save, list, load and delete archived models",
	Long: `Keep revisions of models in a local database.

Every save adds a revision; the newest revision is the head. The database
lives in the config directory unless archive.dir is set.

Examples:
  sim archive save box box.sim
  sim archive list
  sim archive list box
  sim archive load box -w box-latest.sim
  sim archive delete box <revision>`,
}

var archiveSaveCmd = &cobra.Command{
	Use:   "save <name> <model>",
	Short: "Save a model file as a new revision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		a, closeFn, err := openArchive()
		if err != nil {
			return err
		}
		defer closeFn()
		rec, err := a.Save(cmd.Context(), args[0], m)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Saved %s revision %s", rec.Name, rec.ID)
		return nil
	},
}

var archiveWrite string

var archiveLoadCmd = &cobra.Command{
	Use:   "load <name> [revision]",
	Short: "Load a revision (the head by default)",
	Long: `Load a revision and write it to a model file, or print the document
when --write is not given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev := ""
		if len(args) == 2 {
			rev = args[1]
		}
		a, closeFn, err := openArchive()
		if err != nil {
			return err
		}
		defer closeFn()
		rec, err := a.Load(cmd.Context(), args[0], rev)
		if err != nil {
			return err
		}
		if archiveWrite == "" {
			return printResult(rec.Document)
		}
		n, err := writeDocument(cmd.Context(), archiveWrite, rec.Document)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s revision %s to %s (%s)", rec.Name, rec.ID, archiveWrite, cli.FormatBytes(int64(n)))
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:     "list [name]",
	Aliases: []string{"ls"},
	Short:   "List archived models, or the revisions of one",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := openArchive()
		if err != nil {
			return err
		}
		defer closeFn()
		if len(args) == 1 {
			recs, err := a.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(recordList(recs))
		}

		names, err := a.Names(cmd.Context())
		if err != nil {
			return err
		}
		heads := make(headList, 0, len(names))
		for _, name := range names {
			head, err := a.Head(cmd.Context(), name)
			if err != nil {
				return err
			}
			heads = append(heads, headRow{Name: name, Head: head})
		}
		return printResult(heads)
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:     "delete <name> [revision]",
	Aliases: []string{"rm"},
	Short:   "Delete one revision, or all revisions of a model",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev := ""
		if len(args) == 2 {
			rev = args[1]
		}
		a, closeFn, err := openArchive()
		if err != nil {
			return err
		}
		defer closeFn()
		if err := a.Delete(cmd.Context(), args[0], rev); err != nil {
			return err
		}
		if rev == "" {
			cli.PrintSuccess("Deleted %s", args[0])
		} else {
			cli.PrintSuccess("Deleted %s revision %s", args[0], rev)
		}
		return nil
	},
}

func init() {
	archiveLoadCmd.Flags().StringVarP(&archiveWrite, "write", "w", "", "model file to write")

	archiveCmd.AddCommand(archiveSaveCmd)
	archiveCmd.AddCommand(archiveLoadCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveDeleteCmd)
	rootCmd.AddCommand(archiveCmd)
}

