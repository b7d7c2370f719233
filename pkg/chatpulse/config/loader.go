package config

import (
	"fmt"
	"time"

	"github.com/cognicore/chatpulse/pkg/chatpulse/report"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
	"github.com/cognicore/chatpulse/pkg/chatpulse/topics"
)

// Loader constructs components from a Config
type Loader struct {
	Config Config
}

// Components holds all loaded configuration components
type Components struct {
	Stoplist  *stoplist.Manager
	Extractor *topics.Extractor
	Builder   *report.Builder
	Format    report.Format
	Location  *time.Location
	TopN      int
}

// Load builds the stoplist, then the extractor and report builder on top of it
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := &Components{TopN: cfg.Extractor.TopN}

	var opts []stoplist.Option
	if cfg.Extractor.Snowball {
		opts = append(opts, stoplist.WithSnowball())
	}

	// Load stoplist
	if cfg.Extractor.StoplistPath != "" {
		sl, err := LoadStoplist(cfg.Extractor.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms, opts...)
	} else {
		comp.Stoplist = stoplist.English(opts...)
	}
	for _, term := range cfg.Extractor.ExtraStopwords {
		comp.Stoplist.Add(term)
	}

	topicOpts, err := cfg.TopicOptions()
	if err != nil {
		return nil, err
	}
	comp.Extractor, err = topics.NewExtractor(comp.Stoplist, topicOpts)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	comp.Location, err = cfg.Location()
	if err != nil {
		return nil, err
	}
	comp.Format, err = report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return nil, err
	}

	comp.Builder = report.New(comp.Extractor,
		report.WithTopN(cfg.Extractor.TopN),
		report.WithMemberLimit(cfg.Report.MemberLimit),
		report.WithLocation(comp.Location),
	)
	return comp, nil
}
