package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/dataroom"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a directory of pitch decks",
	Long: `Analyzes every PDF in a local directory, or pulls decks from the
configured FTP data room first when --remote-dir is given. Decks run
concurrently; failures are logged and skipped.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("dir", "", "local directory containing deck PDFs")
	batchCmd.Flags().String("remote-dir", "", "data room directory to pull decks from")
	batchCmd.Flags().Int("max-concurrent", 0, "max decks analyzed at once (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	remoteDir, err := cmd.Flags().GetString("remote-dir")
	if err != nil {
		return err
	}
	maxConcurrent, err := cmd.Flags().GetInt("max-concurrent")
	if err != nil {
		return err
	}
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.Batch.MaxConcurrentDecks
	}
	if dir == "" && remoteDir == "" {
		return eris.New("cmd: either --dir or --remote-dir is required")
	}

	ctx := cmd.Context()
	var paths []string
	if dir != "" {
		paths, err = collectLocalDecks(dir)
	} else {
		paths, err = pullRemoteDecks(ctx, remoteDir)
	}
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return eris.New("cmd: no deck PDFs found")
	}

	env, err := initPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	results, err := env.Pipeline.AnalyzeBatch(ctx, paths, maxConcurrent)
	if err != nil {
		return err
	}
	zap.L().Info("cmd: batch complete",
		zap.Int("decks", len(paths)),
		zap.Int("analyzed", len(results)))
	return printJSON(results)
}

func collectLocalDecks(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, eris.Wrap(err, "cmd: glob decks")
	}
	sort.Strings(paths)
	return paths, nil
}

func pullRemoteDecks(ctx context.Context, remoteDir string) ([]string, error) {
	client, err := dataroom.NewClient(cfg.DataRoom)
	if err != nil {
		return nil, err
	}
	remote, err := client.ListDecks(ctx, remoteDir)
	if err != nil {
		return nil, err
	}

	localDir, err := os.MkdirTemp("", "dataroom-decks-*")
	if err != nil {
		return nil, eris.Wrap(err, "cmd: temp dir for decks")
	}
	paths := make([]string, 0, len(remote))
	for _, r := range remote {
		local, err := client.Pull(ctx, r, localDir)
		if err != nil {
			zap.L().Warn("cmd: deck pull failed", zap.String("remote", r), zap.Error(err))
			continue
		}
		paths = append(paths, local)
	}
	return paths, nil
}
