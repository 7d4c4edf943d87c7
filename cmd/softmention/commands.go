package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/softmention/internal/httpapi"
	"github.com/cognicore/softmention/pkg/softmention"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
	"github.com/cognicore/softmention/pkg/softmention/training"
)

func processCmd(flags *globalFlags) *cobra.Command {
	var (
		pattern      string
		disambiguate bool
		skipExisting bool
	)
	cmd := &cobra.Command{
		Use:   "process [file...]",
		Short: "Extract mentions from text or JSON document files",
		Long: `Process reads plain text files and JSON documents (files ending in
.json) and prints one JSON line per input with the extracted mentions.
Inputs come from the arguments and from --glob, which accepts ** patterns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandInputs(args, pattern)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no input files")
			}

			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("disambiguate") {
				disambiguate = a.cfg.Disambiguate
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			var failed int
			for _, path := range files {
				doc, err := loadDocument(path)
				if err != nil {
					failed++
					a.logger.Error("processing failed", "file", path, "error", err)
					continue
				}
				if skipExisting {
					stored, found, err := a.comp.Store.GetDocBySource(ctx, doc.Source)
					if err != nil {
						return err
					}
					if found {
						a.logger.Info("already stored, skipping", "file", path, "doc_id", stored.ID)
						continue
					}
				}
				out, err := processDocument(ctx, a.engine, path, doc, disambiguate)
				if err != nil {
					failed++
					a.logger.Error("processing failed", "file", path, "error", err)
					continue
				}
				if err := enc.Encode(out); err != nil {
					return err
				}
			}
			a.logger.Info("batch done", "files", len(files), "failed", failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "glob", "", "Glob selecting input files, e.g. 'papers/**/*.json'")
	cmd.Flags().BoolVar(&disambiguate, "disambiguate", false, "Resolve names against the knowledge base")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip inputs whose source is already in the store")
	return cmd
}

func trainingCmd(flags *globalFlags) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "training <file>",
		Short: "Render a text file as annotated training markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var rendered []string
			for _, p := range training.Paragraphs(string(data)) {
				entities, err := a.engine.ProcessText(ctx, p, false)
				if err != nil {
					return err
				}
				rendered = append(rendered, training.RenderEntities(entities, normalize.Text(p)))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), training.Document(lang, rendered))
			return err
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "en", "Language of the text")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			srv := httpapi.New(httpapi.Options{
				Engine:       a.engine,
				Metrics:      a.metrics,
				Logger:       a.logger,
				Disambiguate: a.cfg.Disambiguate,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the config")
	return cmd
}

func rarityCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rarity",
		Short: "Manage the term rarity table",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a rarity table computed from the stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.comp.Store.NameStats(ctx)
			if err != nil {
				return err
			}
			table := lexicon.FromCounts(stats.Docs, stats.DF)
			if err := table.WriteYAML(out); err != nil {
				return err
			}
			a.logger.Info("rarity table written", "path", out, "terms", table.Len(), "docs", stats.Docs)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "rarity.yaml", "Output YAML path")
	cmd.AddCommand(export)
	return cmd
}

// fileResult is one output line of the process command.
type fileResult struct {
	File     string           `json:"file"`
	DocID    string           `json:"docId,omitempty"`
	Mentions []mention.Record `json:"mentions"`
}

// processFile runs a JSON document or a plain text file through the
// engine.
func processFile(ctx context.Context, eng *softmention.Engine, path string, disambiguate bool) (fileResult, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return fileResult{}, err
	}
	return processDocument(ctx, eng, path, doc, disambiguate)
}

// loadDocument reads a JSON document, or a text file as a single body
// segment so it is persisted like a document. The source defaults to path.
func loadDocument(path string) (softmention.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return softmention.Document{}, err
	}

	doc := softmention.Document{Source: path}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return softmention.Document{}, fmt.Errorf("decode %s: %w", path, err)
		}
		if doc.Source == "" {
			doc.Source = path
		}
		return doc, nil
	}
	doc.Title = filepath.Base(path)
	doc.Segments = []softmention.Segment{{Name: softmention.SegmentBody, Text: string(data)}}
	return doc, nil
}

func processDocument(ctx context.Context, eng *softmention.Engine, path string, doc softmention.Document, disambiguate bool) (fileResult, error) {
	res, err := eng.ProcessDocument(ctx, doc, disambiguate)
	if err != nil {
		return fileResult{}, err
	}
	return fileResult{File: path, DocID: res.DocID, Mentions: res.Records}, nil
}
