package extract

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Config tunes the extractors.
type Config struct {
	ExcerptChars  int
	MetadataChain []FieldExtractor
	Keywords      KeywordExtractor
}

// Output collects every extractor's result. Each field is written by exactly one extractor.
type Output struct {
	Metadata        audit.Metadata
	StructuredData  []map[string]any
	StructuredTypes []string
	TechStack       map[string]string
	Conversion      audit.ConversionSignals
	BlogLinks       int
	HasPricingPage  bool
	Accessibility   audit.Accessibility
	Security        audit.Security
	Hosting         audit.Hosting
	Social          audit.Social
	Keywords        []string
	HTMLMetrics     audit.HTMLMetrics
	SEO             audit.SEO
	Content         audit.Content
	SupportWidgets  audit.SupportWidgets
	CRMIndicators   audit.CRMIndicators
	Warnings        []string
}

// Extractor runs the independent extractors over one Document.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Extractor. Missing chain or keyword strategy fall back to the defaults.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.MetadataChain == nil {
		cfg.MetadataChain = DefaultMetadataChain
	}
	if cfg.Keywords == nil {
		cfg.Keywords = NewFrequencyKeywords(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

type step struct {
	name string
	run  func() error
}

// Run executes the extractors concurrently. A failing or panicking extractor leaves its
// field at the neutral default and adds a warning; Run itself only fails when ctx is done.
func (e *Extractor) Run(ctx context.Context, doc *Document, finalURL string) (Output, error) {
	out := Output{
		StructuredData:  []map[string]any{},
		StructuredTypes: []string{},
		TechStack:       map[string]string{},
		Conversion:      audit.ConversionSignals{CTASamples: []string{}, PageType: PageLanding},
		Accessibility:   audit.Accessibility{Landmarks: map[string]int{}},
		Hosting:         audit.Hosting{Provider: "unknown", Signals: []string{}},
		Social:          audit.Social{Profiles: map[string]string{}},
		Keywords:        []string{},
		SupportWidgets:  audit.SupportWidgets{Providers: []string{}},
		CRMIndicators:   audit.CRMIndicators{Providers: []string{}},
	}
	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, msg)
	}

	steps := []step{
		{"metadata", func() error {
			md, w := ScrapeMetadata(doc, e.cfg.MetadataChain)
			out.Metadata = md
			for _, msg := range w {
				warn("extract: " + msg)
			}
			return nil
		}},
		{"structured_data", func() error {
			nodes, dropped := StructuredData(doc)
			if nodes != nil {
				out.StructuredData = nodes
			}
			out.StructuredTypes = StructuredTypes(nodes)
			if dropped > 0 {
				e.logger.Debug("dropped invalid json-ld blocks", zap.Int("count", dropped))
			}
			return nil
		}},
		{"tech", func() error {
			out.TechStack = Fingerprint(doc.Raw)
			chat := MatchAll(doc.Raw, TechChat)
			out.SupportWidgets = audit.SupportWidgets{LiveChat: len(chat) > 0, Providers: chat}
			crm := MatchAll(doc.Raw, TechCRM)
			out.CRMIndicators = audit.CRMIndicators{Present: len(crm) > 0, Providers: crm}
			return nil
		}},
		{"conversion", func() error {
			out.Conversion = Conversion(doc)
			out.BlogLinks, out.HasPricingPage = LinkSignals(doc)
			return nil
		}},
		{"accessibility", func() error {
			out.Accessibility = Accessibility(doc)
			return nil
		}},
		{"security", func() error {
			out.Security = SecurityHeaders(finalURL, doc.Headers)
			out.Hosting = Hosting(doc.Headers)
			return nil
		}},
		{"social", func() error {
			out.Social = SocialProfiles(doc)
			return nil
		}},
		{"keywords", func() error {
			if kw := e.cfg.Keywords.Keywords(doc); kw != nil {
				out.Keywords = kw
			}
			return nil
		}},
		{"html_metrics", func() error {
			out.HTMLMetrics = HTMLMetrics(doc)
			return nil
		}},
		{"content", func() error {
			c, err := Content(doc, e.cfg.ExcerptChars)
			out.Content = c
			return err
		}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range steps {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := guard(s); err != nil {
				e.logger.Warn("extractor failed", zap.String("extractor", s.name), zap.Error(err))
				warn(fmt.Sprintf("extract: %s: %v", s.name, err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("run extractors: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("run extractors: %w", err)
	}

	out.SEO = SEO(doc, out.Metadata, out.Keywords)
	out.Warnings = warnings
	return out, nil
}

func guard(s step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.run()
}
