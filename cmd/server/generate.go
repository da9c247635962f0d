package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/viralpilot/internal/aggregator"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/config"
	"github.com/jimdaga/viralpilot/internal/enrichment"
	"github.com/jimdaga/viralpilot/internal/logging"
	"github.com/jimdaga/viralpilot/internal/media"
	"github.com/jimdaga/viralpilot/internal/pipeline"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/spf13/cobra"
)

var generateFlags struct {
	topic     string
	sourceURL string
	platforms []string
	tone      string
	goal      string
	posts     int
	profile   string
	stub      bool
	images    bool
	catalog   string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one campaign and print it as JSON",
	Long: `Runs the campaign pipeline once with the server's AI configuration and
prints the finished campaign to stdout. Nothing is saved to the database.`,
	Example: `  viralpilot generate --topic "AI for small business" --platform LinkedIn --platform Twitter --posts 3
  viralpilot generate --stub --url https://example.com/article`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.topic, "topic", "", "campaign topic")
	f.StringVar(&generateFlags.sourceURL, "url", "", "source article URL (instead of a topic)")
	f.StringSliceVar(&generateFlags.platforms, "platform", []string{"LinkedIn"}, "target platform (repeatable)")
	f.StringVar(&generateFlags.tone, "tone", "Professional", "writing tone")
	f.StringVar(&generateFlags.goal, "goal", "Brand Awareness", "campaign goal")
	f.IntVar(&generateFlags.posts, "posts", 3, "number of posts")
	f.StringVar(&generateFlags.profile, "profile", "", "phase profile: full or minimal (default PIPELINE_PROFILE)")
	f.BoolVar(&generateFlags.stub, "stub", false, "use the offline stub provider")
	f.BoolVar(&generateFlags.images, "images", false, "generate one image per post into MEDIA_DIR")
	f.StringVar(&generateFlags.catalog, "catalog", "", "catalog YAML file overriding the built-in one")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	cat := catalog.Default()
	if generateFlags.catalog != "" {
		var err error
		if cat, err = catalog.Load(generateFlags.catalog); err != nil {
			return err
		}
	}

	req := pipeline.Request{
		Mode:      pipeline.ModeTopic,
		Topic:     generateFlags.topic,
		Tone:      generateFlags.tone,
		Goal:      generateFlags.goal,
		PostCount: generateFlags.posts,
	}
	if generateFlags.sourceURL != "" {
		req.Mode = pipeline.ModeURL
		req.SourceURL = generateFlags.sourceURL
	}
	for _, p := range generateFlags.platforms {
		req.Platforms = append(req.Platforms, campaign.Platform(p))
	}
	if err := req.Validate(cat); err != nil {
		return err
	}

	pcfg := providerConfig(cfg)
	if generateFlags.stub || cfg.AIStubMode {
		pcfg.Provider = provider.ProviderStub
	}
	gw, err := provider.NewGateway(ctx, pcfg, logger)
	if err != nil {
		return err
	}

	opts := pipelineOptions(cfg)
	if generateFlags.profile != "" {
		opts.Profile = campaign.ParseProfile(generateFlags.profile)
	}
	p := pipeline.New(gw, cat, opts, logger)
	agg := aggregator.New(uuid.NewString(), req.Subject(), time.Now())
	history := aggregator.NewMemoryHistory(1)

	c, err := agg.Run(ctx, p.Stream(ctx, req, nil), func(s aggregator.Snapshot) {
		logger.Info("Phase", "step", s.Step, "posts", len(s.Campaign.Posts))
	}, history)
	if err != nil {
		return err
	}

	if generateFlags.images {
		disk, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaURLPrefix)
		if err != nil {
			return err
		}
		c = enrichment.New(gw, disk, enrichmentOptions(cfg), logger).EnrichImages(ctx, c, func(i int, post campaign.Post) {
			logger.Info("Image settled", "post", i, "status", post.Image.Status)
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write campaign: %w", err)
	}
	logger.Info("Campaign generated", "id", c.ID, "posts", len(c.Posts), "recorded", len(history.List()))
	return nil
}
