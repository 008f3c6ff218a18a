package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cardforge/internal/card"
	"cardforge/internal/history"
	"cardforge/internal/llm"
	"cardforge/internal/pipeline"
	"cardforge/internal/preset"
	"cardforge/internal/refine"
	"cardforge/internal/session"
)

var runFlags struct {
	client     string
	model      string
	presetsDir string
	historyDir string
	userName   string
	stages     string
	maxRefine  int
	exportPath string
	statePath  string
}

var runCmd = &cobra.Command{
	Use:   "run <card.json>",
	Short: "Run the improvement pipeline on a single card file",
	Long: `Runs the selected stages against one card file, then loops
rewrite refinement until the analysis verdict accepts the rewrite or
the iteration cap is reached. Stage responses print to stdout as they
complete.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read card: %w", err)
		}
		c, err := card.Parse(data)
		if err != nil {
			return fmt.Errorf("parse card %s: %w", filepath.Base(args[0]), err)
		}

		client, err := buildClient(ctx, runFlags.client, runFlags.model)
		if err != nil {
			return err
		}
		defer client.Close()

		sess := session.New(session.Options{
			Provider:  singleCardProvider{c},
			Presets:   preset.NewStore(runFlags.presetsDir),
			Histories: history.NewFromEnv(runFlags.historyDir),
			Client:    client,
			UserName:  runFlags.userName,
		})
		if err := sess.SelectCard(ctx, 0); err != nil {
			return err
		}
		if stages, err := parseStages(runFlags.stages); err != nil {
			return err
		} else if stages != nil {
			sess.SetSelectedStages(stages)
		}

		if check := sess.Validate(); !check.OK() {
			return fmt.Errorf("pipeline not runnable:\n  %s", strings.Join(check.Errors, "\n  "))
		}

		w := cmd.OutOrStdout()
		for _, stage := range sess.State().Selected {
			if _, err := sess.RunStage(ctx, stage); err != nil {
				return fmt.Errorf("%s stage: %w", stage, err)
			}
			printResult(w, sess.State(), stage)
		}

		if err := refineLoop(ctx, cmd, sess); err != nil {
			return err
		}
		return writeOutputs(ctx, cmd, sess)
	},
}

// refineLoop re-runs rewrite+analyze until the verdict accepts or the
// cap is hit. Does nothing when analyze never ran.
func refineLoop(ctx context.Context, cmd *cobra.Command, sess *session.Session) error {
	w := cmd.OutOrStdout()
	for i := 0; i < runFlags.maxRefine; i++ {
		st := sess.State()
		analysis := st.Results[pipeline.StageAnalyze]
		if analysis == nil {
			return nil
		}
		verdict := refine.ExtractVerdict(analysis.Response)
		fmt.Fprintf(w, "\n-- iteration %d verdict: %s\n", st.Iteration, verdict)
		if verdict == pipeline.VerdictAccept {
			sess.AcceptRewrite(ctx)
			return nil
		}
		if verdict == pipeline.VerdictRegressed && len(st.History) > 0 {
			// The previous rewrite was better; go back to it and stop.
			fmt.Fprintf(w, "-- regression, reverting to iteration %d\n", st.History[len(st.History)-1].Iteration)
			return sess.RevertToIteration(ctx, len(st.History)-1)
		}
		if _, err := sess.StartRefinement(ctx); err != nil {
			return fmt.Errorf("refinement: %w", err)
		}
		printResult(w, sess.State(), pipeline.StageRewrite)
		if _, err := sess.RunStage(ctx, pipeline.StageAnalyze); err != nil {
			return fmt.Errorf("analyze stage: %w", err)
		}
		printResult(w, sess.State(), pipeline.StageAnalyze)
	}
	fmt.Fprintf(w, "\n-- iteration cap (%d) reached\n", runFlags.maxRefine)
	return nil
}

func writeOutputs(ctx context.Context, cmd *cobra.Command, sess *session.Session) error {
	if runFlags.statePath != "" {
		data, err := sess.SaveState()
		if err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		if err := os.WriteFile(runFlags.statePath, data, 0o644); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "state saved to %s\n", runFlags.statePath)
	}
	if runFlags.exportPath == "" {
		return nil
	}
	doc, _, err := sess.Export(ctx)
	if err != nil {
		return err
	}
	if runFlags.exportPath == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), doc)
		return nil
	}
	if err := os.WriteFile(runFlags.exportPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", runFlags.exportPath)
	return nil
}

func printResult(w io.Writer, st pipeline.State, stage pipeline.Stage) {
	r := st.Results[stage]
	if r == nil {
		return
	}
	fmt.Fprintf(w, "\n== %s ==\n%s\n", stage, r.Response)
}

func parseStages(raw string) ([]pipeline.Stage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var stages []pipeline.Stage
	for _, part := range strings.Split(raw, ",") {
		st := pipeline.Stage(strings.ToLower(strings.TrimSpace(part)))
		if pipeline.OrderIndex(st) < 0 {
			return nil, fmt.Errorf("unknown stage %q (expected score, rewrite, analyze)", part)
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func buildClient(ctx context.Context, kind, model string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "fake":
		return llm.NewFakeClient(), nil
	case "gemini":
		return llm.NewGeminiClient(ctx, model)
	}
	return nil, fmt.Errorf("unknown client %q (expected fake or gemini)", kind)
}

// singleCardProvider serves the one card the run command was given.
type singleCardProvider struct {
	card *card.CharacterCard
}

func (p singleCardProvider) List() []*card.CharacterCard { return []*card.CharacterCard{p.card} }

func (p singleCardProvider) Get(index int) (*card.CharacterCard, bool) {
	if index != 0 {
		return nil, false
	}
	return p.card, true
}

func init() {
	runCmd.Flags().StringVar(&runFlags.client, "client", "fake", "completion client: fake or gemini")
	runCmd.Flags().StringVar(&runFlags.model, "model", "gemini-2.0-flash", "model name for the gemini client")
	runCmd.Flags().StringVar(&runFlags.presetsDir, "presets", "./presets", "prompt/schema preset directory")
	runCmd.Flags().StringVar(&runFlags.historyDir, "history", "./history", "iteration history directory")
	runCmd.Flags().StringVar(&runFlags.userName, "user", "User", "name substituted for {{user}}")
	runCmd.Flags().StringVar(&runFlags.stages, "stages", "", "comma-separated stages to run (default: score,rewrite)")
	runCmd.Flags().IntVar(&runFlags.maxRefine, "refine", 0, "max refinement iterations after analyze")
	runCmd.Flags().StringVar(&runFlags.exportPath, "export", "", "write the markdown export here ('-' for stdout)")
	runCmd.Flags().StringVar(&runFlags.statePath, "save-state", "", "write the serialized pipeline state here")
}
