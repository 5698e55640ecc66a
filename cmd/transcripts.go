package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/specforge/pkg/archive"
	"thoreinstein.com/specforge/pkg/config"
)

// transcriptsCmd groups the archive browsing subcommands.
var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Browse archived interview transcripts",
	Long: `Browse the interview archive.

Every completed interview (interactive or simulated) is appended to the JSONL
transcript log. When a SQLite index is configured these commands query it
directly; otherwise the log is replayed.`,
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived interview sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscriptsListCommand("")
	},
}

var transcriptsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search archived sessions by content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscriptsListCommand(args[0])
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one archived session in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscriptsShowCommand(cmd.Context(), args[0])
	},
}

var (
	transcriptsLimit int
	transcriptsScope string
)

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.AddCommand(transcriptsListCmd)
	transcriptsCmd.AddCommand(transcriptsSearchCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)

	for _, cmd := range []*cobra.Command{transcriptsListCmd, transcriptsSearchCmd} {
		cmd.Flags().IntVar(&transcriptsLimit, "limit", 20, "maximum number of sessions to show")
		cmd.Flags().StringVarP(&transcriptsScope, "scope", "s", "", "filter by interview scope")
	}
}

func openArchiveForBrowsing() (*archive.Archive, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	if transcriptsScope != "" {
		if transcriptsScope, err = config.NormalizeScope(transcriptsScope, ""); err != nil {
			return nil, nil, err
		}
	}
	arch, closer := buildArchive(cfg, newLogger())
	return arch, closer, nil
}

func runTranscriptsListCommand(query string) error {
	arch, closer, err := openArchiveForBrowsing()
	if err != nil {
		return err
	}
	defer closer()

	var sessions []archive.Summary
	if query == "" {
		sessions, err = arch.List(transcriptsLimit, transcriptsScope)
	} else {
		sessions, err = arch.Search(query, transcriptsLimit, transcriptsScope)
	}
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No archived sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCOPE\tCREATED\tTURNS\tSPEC")
	for _, session := range sessions {
		spec := session.SpecPath
		if spec == "" {
			spec = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			session.ID,
			session.Scope,
			session.CreatedAt.Format("2006-01-02 15:04"),
			session.TurnCount,
			spec,
		)
	}
	return w.Flush()
}

func runTranscriptsShowCommand(ctx context.Context, recordID string) error {
	arch, closer, err := openArchiveForBrowsing()
	if err != nil {
		return err
	}
	defer closer()

	record, err := arch.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.Newf("no archived session with id %q", recordID)
	}

	fmt.Printf("Session %s (%s, %s)\n", record.ID, record.Scope,
		record.CreatedAt.Format("2006-01-02 15:04:05"))
	for i, turn := range record.Turns {
		subject := ""
		if turn.Subject != "" {
			subject = " [" + turn.Subject + "]"
		}
		fmt.Printf("\n%d.%s\nBA Agent: %s\nStakeholder: %s\n", i+1, subject, turn.Question, turn.Answer)
	}
	if record.SpecText != "" {
		fmt.Printf("\n--- Functional specification ---\n%s\n", record.SpecText)
	}
	if record.SpecPath != "" {
		fmt.Printf("\nSpecification file: %s\n", record.SpecPath)
	}
	return nil
}
