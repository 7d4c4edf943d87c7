package main

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

type report struct {
	TotalDocs int64       `json:"total_docs"`
	Names     []nameEntry `json:"names"`
}

type nameEntry struct {
	Name      string  `json:"name"`
	DF        int64   `json:"df"`
	DFPercent float64 `json:"df_percent"`
	Weight    float64 `json:"weight"`
}

func statsCmd(flags *globalFlags) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report the most mentioned software names in the store",
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
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(buildReport(stats, top))
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "Number of names to list, 0 for all")
	return cmd
}

// buildReport ranks names by document frequency, ties broken by name.
func buildReport(stats store.NameStats, limit int) report {
	table := lexicon.FromCounts(stats.Docs, stats.DF)
	names := make([]nameEntry, 0, len(stats.DF))
	for name, df := range stats.DF {
		e := nameEntry{Name: name, DF: df, Weight: table.Weight(name)}
		if stats.Docs > 0 {
			e.DFPercent = 100 * float64(df) / float64(stats.Docs)
		}
		names = append(names, e)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].DF != names[j].DF {
			return names[i].DF > names[j].DF
		}
		return names[i].Name < names[j].Name
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return report{TotalDocs: stats.Docs, Names: names}
}

// nameReport lists where a software name was seen.
type nameReport struct {
	Name     string        `json:"name"`
	DF       int64         `json:"df"`
	Mentions []nameMention `json:"mentions"`
}

type nameMention struct {
	DocID  string         `json:"doc_id"`
	Record mention.Record `json:"record"`
}

func mentionsCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "mentions <name>",
		Short: "List stored mentions of a software name, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := buildNameReport(ctx, a.comp.Store, args[0], limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of mentions to list")
	return cmd
}

func buildNameReport(ctx context.Context, st store.Store, name string, limit int) (nameReport, error) {
	df, err := st.NameDF(ctx, name)
	if err != nil {
		return nameReport{}, err
	}
	found, err := st.MentionsByName(ctx, name, limit)
	if err != nil {
		return nameReport{}, err
	}
	r := nameReport{Name: name, DF: df, Mentions: make([]nameMention, 0, len(found))}
	for _, m := range found {
		r.Mentions = append(r.Mentions, nameMention{DocID: m.DocID, Record: m.Record})
	}
	return r, nil
}
