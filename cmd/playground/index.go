package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/czapol/multi-agent-playground/store"
	"github.com/czapol/multi-agent-playground/store/db/sqlite"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index markdown and text files for file search",
	Long:  "Walks dir (default: --docs) and upserts every .md, .markdown and .txt file into the document index. No provider credentials are needed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile(false)
		if err != nil {
			return err
		}
		dir := p.DocsDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no directory given, pass one or set --docs")
		}

		driver, err := sqlite.NewDB(p.DSN)
		if err != nil {
			return err
		}
		st := store.New(driver)
		defer st.Close()

		ctx := cmd.Context()
		if err := st.Migrate(ctx); err != nil {
			return errors.Wrap(err, "failed to migrate document index")
		}
		report, err := st.IndexDir(ctx, dir)
		if err != nil {
			return err
		}
		total, err := st.CountDocuments(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files from %s (%d skipped), %d documents in %s\n",
			report.Indexed, dir, report.Skipped, total, p.DSN)
		return nil
	},
}
