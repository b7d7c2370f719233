package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/pkg/chatpulse/autotune/stopwords"
	"github.com/cognicore/chatpulse/pkg/chatpulse/config"
	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
)

func (a *app) stopwordsCommand() *cobra.Command {
	var (
		server string
		days   int
		write  string
		th     = stopwords.DefaultThresholds()
	)

	cmd := &cobra.Command{
		Use:   "stopwords",
		Short: "Suggest server-specific stopwords",
		Long: `Stopwords looks for tokens that show up in a large share of messages
and evenly across channels, such as "yeah" or "lol", and suggests them as
stopwords. With --write the current stoplist plus the suggestions is saved
as a YAML stoplist that the extractor.stoplist setting can point to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, comp, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			msgs, err := engine.Messages(ctx, server, time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}

			pipeline := ingest.NewPipeline(
				ingest.NewTokenizer(a.cfg.Extractor.CommandPrefix),
				ingest.NewFilter(comp.Stoplist, a.cfg.Extractor.MinLength, a.cfg.Extractor.CommandPrefix),
			)
			tuner := stopwords.AutoTuner{
				Provider:   stopwords.MessageStats{Pipeline: pipeline, Messages: msgs},
				Manager:    comp.Stoplist,
				Thresholds: th,
			}
			cands, err := tuner.Run(ctx)
			if err != nil {
				return err
			}

			w := out(cmd)
			if len(cands) == 0 {
				fmt.Fprintf(w, "No suggestions from %d messages.\n", len(msgs))
				return nil
			}
			for _, c := range cands {
				fmt.Fprintf(w, "%-20s score=%.2f  messages=%.1f%%  channels=%d  spread=%.2f\n",
					c.Token, c.Score, c.Stats.DFPercent, c.Stats.Channels, c.Stats.ChannelEntropy)
			}

			if write != "" {
				merged := comp.Stoplist.Clone()
				for _, c := range cands {
					merged.Add(c.Token)
				}
				if err := config.SaveStoplist(write, merged.All()); err != nil {
					return fmt.Errorf("write stoplist: %w", err)
				}
				a.logger.Info("wrote stoplist", "path", write, "terms", merged.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server id (required)")
	cmd.Flags().IntVar(&days, "days", 30, "look back this many days")
	cmd.Flags().StringVar(&write, "write", "", "save the merged stoplist to this YAML file")
	cmd.Flags().Float64Var(&th.DFPercent, "min-share", th.DFPercent, "minimum share of messages, in percent")
	cmd.Flags().Float64Var(&th.ChannelEntropy, "min-spread", th.ChannelEntropy, "minimum channel spread, 0-1")
	cmd.Flags().IntVar(&th.MinMessages, "min-messages", th.MinMessages, "minimum messages before suggesting")
	_ = cmd.MarkFlagRequired("server")
	return cmd
}
