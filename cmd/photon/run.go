// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/photon/internal/agent"
	gitpkg "github.com/petar-djukic/photon/internal/git"
	"github.com/petar-djukic/photon/internal/llm"
	"github.com/petar-djukic/photon/internal/memory"
	"github.com/petar-djukic/photon/internal/repomap"
	"github.com/petar-djukic/photon/pkg/types"
)

// newRunCmd creates the "run" command.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a coding goal",
		Long:  "Run drives the Agent Control Loop to completion for a natural language goal, exploring the repository through the indexed tool surface and editing it as needed.",
		RunE:  runAgent,
	}

	cmd.Flags().StringP("goal", "g", "", "Coding goal description (required)")
	cmd.MarkFlagRequired("goal")

	return cmd
}

func runAgent(cmd *cobra.Command, args []string) error {
	goal, _ := cmd.Flags().GetString("goal")
	workDir := viper.GetString("workdir")

	idx, err := buildIndex(workDir, viper.GetStringSlice("lsp"))
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	if err := idx.ScanBlocking(); err != nil {
		return fmt.Errorf("scanning project: %w", err)
	}
	if err := idx.Persist(); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	if w, werr := idx.Watch(30 * time.Second); werr == nil {
		defer w.Stop()
	}

	if _, perr := memory.NewProjectStore(workDir).Refresh(); perr != nil {
		fmt.Fprintf(os.Stderr, "warning: refreshing project memory: %v\n", perr)
	}

	client, err := llm.NewClient(llm.ClientConfig{
		Model:     viper.GetString("model"),
		APIKey:    os.Getenv("PHOTON_API_KEY"),
		BaseURL:   viper.GetString("base-url"),
		MaxTokens: viper.GetInt("max-tokens"),
	})
	if err != nil {
		return fmt.Errorf("initializing LLM client: %w", err)
	}

	systemPrompt, err := llm.RenderSystemPrompt(llm.TemplateData{
		OS:        runtime.GOOS,
		GoVersion: runtime.Version(),
		WorkDir:   workDir,
		Now:       time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("rendering system prompt: %w", err)
	}

	loop := agent.NewLoop(client, newToolRegistry(workDir, idx), systemPrompt)
	loop.Root = workDir
	loop.MaxIterations = viper.GetInt("max-iterations")
	loop.FailureMemory = memory.NewFailureStore(workDir)
	loop.Context = memory.NewContextManager(llmSummarizer{client})

	if tl, terr := openTaskLog(workDir); terr == nil {
		defer tl.Close()
		loop.Progress = tl
	}

	if !viper.GetBool("no-repo-map") {
		if rm, err := repomap.BuildMap(context.Background(), workDir, nil, float64(viper.GetInt("max-tokens"))); err == nil {
			loop.RepoMap = rm.Map
		}
	}

	var repo *gitpkg.Repo
	if !viper.GetBool("no-git") {
		if r, err := gitpkg.Open(gitpkg.Config{WorkDir: workDir, AutoCommit: true, DirtyCommit: true}); err == nil {
			repo = r
			if err := repo.HandleDirty(); err != nil {
				return fmt.Errorf("handling dirty worktree: %w", err)
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := loop.Run(ctx, goal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if result != nil {
			printResult(result)
		}
		return err
	}

	if repo != nil && result.Success && len(result.ModifiedFiles) > 0 {
		if err := repo.AutoCommit(result.ModifiedFiles, goal); err != nil {
			fmt.Fprintf(os.Stderr, "warning: auto-commit failed: %v\n", err)
		}
	}

	printResult(result)
	return nil
}

// printResult outputs the result as JSON to stdout.
func printResult(result *agent.Result) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

// taskLog streams the loop's tool calls and observations into a
// plain-text log at .photon/logs/task_<id>.log, one timestamped line
// per event.
type taskLog struct {
	f *os.File
}

func openTaskLog(workDir string) (*taskLog, error) {
	dir := filepath.Join(workDir, ".photon", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	id := time.Now().UTC().Format("20060102T150405Z")
	f, err := os.OpenFile(filepath.Join(dir, "task_"+id+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &taskLog{f: f}, nil
}

func (l *taskLog) Close() error { return l.f.Close() }

func (l *taskLog) line(format string, args ...any) {
	fmt.Fprintf(l.f, "%s "+format+"\n", append([]any{time.Now().UTC().Format(time.RFC3339)}, args...)...)
}

func (l *taskLog) OnToken(string) {}

func (l *taskLog) OnToolCall(tool, args string) {
	l.line("call %s %s", tool, args)
}

func (l *taskLog) OnObservation(obs types.Observation) {
	if obs.Result.IsError() {
		l.line("fail %s: %s", obs.Tool, obs.Result.Err)
		return
	}
	l.line("ok   %s", obs.Tool)
}

// llmSummarizer adapts an *llm.Client to memory.Summarizer for
// compressing message history the context manager has decided to
// collapse into a [READ_SUMMARY] entry.
type llmSummarizer struct {
	client *llm.Client
}

func (s llmSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	messages := llm.ConstructMessages(
		"Summarize the following agent transcript excerpt in two or three sentences, keeping any file paths, symbol names, and error messages a future turn would need.",
		"", nil, text,
	)
	tokenCh, resultCh := s.client.SendPrompt(ctx, messages, nil)
	for range tokenCh {
	}
	resp := <-resultCh
	if resp == nil || resp.FullText == "" {
		return "", fmt.Errorf("summarizer: empty response")
	}
	return resp.FullText, nil
}
