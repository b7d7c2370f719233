package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/pkg/chatpulse"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
	"github.com/cognicore/chatpulse/pkg/chatpulse/topics"
)

func (a *app) topicsCommand() *cobra.Command {
	var (
		server  string
		days    int
		topN    int
		asJSON  bool
		rawFreq bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Rank discussion topics for a server",
		Long: `Topics ranks terms from the server's recent messages. Frequent word
pairs absorb the counts of their words, so "machine learning" replaces
"machine" and "learning" when the pair is the better unit.

Use --frequency for the plain stemmed word count instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, comp, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			if !cmd.Flags().Changed("top") {
				topN = comp.TopN
			}
			since := time.Now().AddDate(0, 0, -days)

			var ranked []topics.Topic
			if rawFreq {
				ranked, err = a.frequencyTopics(ctx, engine, server, since, topN, comp.Stoplist)
			} else {
				ranked, err = engine.Topics(ctx, server, since, topN)
			}
			if err != nil {
				return err
			}

			w := out(cmd)
			if explain {
				if err := explainCounts(ctx, w, engine, comp.Extractor, server, since); err != nil {
					return err
				}
			}
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(topics.ToMap(ranked))
			}
			if len(ranked) == 0 {
				fmt.Fprintln(w, "No topics found.")
				return nil
			}
			for i, t := range ranked {
				fmt.Fprintf(w, "%2d. %-30s %d\n", i+1, t.Term, t.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server id (required)")
	cmd.Flags().IntVar(&days, "days", 7, "look back this many days")
	cmd.Flags().IntVarP(&topN, "top", "n", topics.DefaultTopN, "number of topics")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a term → count JSON object")
	cmd.Flags().BoolVar(&rawFreq, "frequency", false, "rank stemmed single words without bigram merging")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the raw word and pair counts before ranking")
	_ = cmd.MarkFlagRequired("server")
	return cmd
}

func (a *app) frequencyTopics(ctx context.Context, engine *chatpulse.Engine, server string, since time.Time, topN int, stops *stoplist.Manager) ([]topics.Topic, error) {
	msgs, err := engine.Messages(ctx, server, since)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Content
	}

	opts := topics.DefaultFrequencyOptions()
	opts.MinLength = a.cfg.Extractor.MinLength
	opts.CommandPrefix = a.cfg.Extractor.CommandPrefix
	return topics.Frequency(texts, topN, stops, opts)
}

// explainCounts prints the unigram and bigram tables the ranking starts from.
func explainCounts(ctx context.Context, w io.Writer, engine *chatpulse.Engine, ex *topics.Extractor, server string, since time.Time) error {
	msgs, err := engine.Messages(ctx, server, since)
	if err != nil {
		return err
	}
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Content
	}
	counts, err := ex.Counts(texts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Messages: %d  words: %d  pairs: %d\n", counts.Messages(), counts.UniqueTokens(), counts.UniqueBigrams())
	fmt.Fprintln(w, "Words:")
	for _, tok := range counts.Tokens() {
		fmt.Fprintf(w, "  %-30s %d\n", tok, counts.Unigram(tok))
	}
	fmt.Fprintln(w, "Pairs:")
	for _, bg := range counts.Bigrams() {
		fmt.Fprintf(w, "  %-30s %d\n", bg.String(), counts.Bigram(bg.A, bg.B))
	}
	fmt.Fprintln(w)
	return nil
}
