package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docchat/internal/indexer"
	"docchat/internal/service"
)

func newIngestCmd(build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Store files as one new document",
		Long: `Extract, chunk and store the given files under a single new doc_id.

PDF and DOCX files are converted to text; every other file is read as UTF-8.

Example:
  docctl ingest policy.pdf network-diagram.docx notes.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}
			return withEnv(cmd, build, func(ctx context.Context, env *Env) error {
				result, err := env.Ingest.Ingest(ctx, files)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d chunks\n", result.DocID, result.Chunks)
				return err
			})
		},
	}
}

func newDocsCmd(build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, build, func(ctx context.Context, env *Env) error {
				docs, err := env.Documents.List(ctx)
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "no documents")
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DOC_ID\tCHUNKS")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%d\n", d.DocID, d.Chunks)
				}
				return tw.Flush()
			})
		},
	}
}

func newShowCmd(build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "show DOC_ID",
		Short: "Print the chunks of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, build, func(ctx context.Context, env *Env) error {
				chunks, err := env.Documents.Chunks(ctx, args[0])
				if errors.Is(err, service.ErrNotFound) {
					return fmt.Errorf("document %s not found", args[0])
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for i, c := range chunks {
					if i > 0 {
						fmt.Fprintln(out)
					}
					embedded := "no"
					if c.HasEmbedding() {
						embedded = "yes"
					}
					fmt.Fprintf(out, "[doc=%s file=%s idx=%d embedded=%s]\n%s\n", c.DocID, c.FileName, c.Index, embedded, c.Text)
				}
				return nil
			})
		},
	}
}

type askCommander struct {
	docID  string
	mode   string
	files  []string
	asJSON bool
}

func newAskCmd(build Builder) *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a question over stored and ad-hoc evidence",
		Long: `Ask the configured model a question. Evidence comes from the stored document
named by --doc and from any --file given; --file evidence is not stored.

Example:
  docctl ask "Is MFA enforced for admins?" --doc DOC-0a1b2c3d
  docctl ask "Summarise the gaps" --mode reasoning --file audit.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(cmder.files)
			if err != nil {
				return err
			}
			return withEnv(cmd, build, func(ctx context.Context, env *Env) error {
				resp, err := env.Chat.Chat(ctx, service.ChatRequest{
					Mode:    cmder.mode,
					Message: args[0],
					DocID:   cmder.docID,
					Files:   files,
				})
				if err != nil {
					if detail := service.UpstreamDetail(err); detail != "" {
						return fmt.Errorf("upstream Ollama error: %s", detail)
					}
					return err
				}
				return cmder.print(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVar(&cmder.docID, "doc", "", "Stored document to use as evidence")
	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", service.ModeGeneral, "Chat mode: general or reasoning")
	cmd.Flags().StringArrayVarP(&cmder.files, "file", "f", nil, "Ad-hoc evidence file (repeatable)")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the full response as JSON")

	return cmd
}

func (c *askCommander) print(cmd *cobra.Command, resp service.ChatResponse) error {
	out := cmd.OutOrStdout()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(out, resp.Reply)
	if len(resp.UsedChunks) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Evidence:")
		for _, u := range resp.UsedChunks {
			fmt.Fprintf(out, "  [doc=%s file=%s idx=%d]\n", u.DocID, u.FileName, u.Index)
		}
	}
	return nil
}

func newStatsCmd(build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Corpus and embedding cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, build, func(ctx context.Context, env *Env) error {
				stats, err := env.Stats.CorpusStats(ctx, env.EmbedModel)
				if err != nil {
					return err
				}

				report := struct {
					*indexer.CorpusStats
					CacheEntries int `json:"cache_entries"`
				}{CorpusStats: stats}
				if env.CacheEntries != nil {
					if report.CacheEntries, err = env.CacheEntries(ctx); err != nil {
						return fmt.Errorf("failed to count cached embeddings: %w", err)
					}
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			})
		},
	}
}

// readFiles loads paths into memory, naming each file by its base name.
func readFiles(paths []string) ([]indexer.File, error) {
	files := make([]indexer.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, indexer.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}
