package main

import (
	"context"
	"fmt"

	"literature-search-be/internal/config"
	"literature-search-be/pkg/smartsearch"

	"github.com/spf13/cobra"
)

type runOptions struct {
	question     string
	sources      []string
	optimize     bool
	pages        int
	strictness   string
	featuresPath string
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a question through every stage, from evidence specification to extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.question, "question", "q", "", "research question")
	cmd.Flags().StringSliceVar(&opts.sources, "sources", cfg.SmartSearch.DefaultSources, "sources to search")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "ask the service to optimize the keywords before searching")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "result pages to fetch before filtering")
	cmd.Flags().StringVar(&opts.strictness, "strictness", string(smartsearch.StrictnessMedium), "filter strictness: low, medium, high")
	cmd.Flags().StringVar(&opts.featuresPath, "features", "", "YAML file of features to extract after filtering")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func runPipeline(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.pages < 1 {
		opts.pages = 1
	}
	var features []smartsearch.FeatureDefinition
	if opts.featuresPath != "" {
		var err error
		if features, err = loadFeatures(opts.featuresPath); err != nil {
			return err
		}
	}

	wf, err := smartsearch.New(ctx, newGateway(),
		smartsearch.WithLogger(cliLogger()),
		smartsearch.WithSourceStore(smartsearch.NewMemorySourceStore(opts.sources...)),
	)
	if err != nil {
		return err
	}
	if err := wf.SetStrictness(smartsearch.Strictness(opts.strictness)); err != nil {
		return err
	}

	step("Evidence specification")
	spec, err := wf.SubmitQuestion(ctx, opts.question)
	if err != nil {
		return err
	}
	detail("session %s", spec.SessionID)
	fmt.Println(spec.EvidenceSpecification)

	step("Keywords")
	kw, err := wf.GenerateKeywords(ctx, opts.sources)
	if err != nil {
		return err
	}
	detail("%s", kw.SearchKeywords)
	if kw.Count != nil {
		detail("%d estimated results", kw.Count.TotalCount)
	} else {
		warnColor.Println("    count test unavailable")
	}

	if opts.optimize {
		step("Optimizing keywords")
		opt, err := wf.OptimizeAndRecord(ctx)
		if err != nil {
			return err
		}
		if opt.FinalKeywords != nil {
			detail("%s (%d results)", *opt.FinalKeywords, opt.FinalCount)
		}
	}

	step("Searching")
	var search *smartsearch.SearchResults
	for page := 0; page < opts.pages; page++ {
		offset := 0
		if search != nil {
			if !search.Pagination.HasMore {
				break
			}
			offset = len(search.Articles)
		}
		if search, err = wf.ExecuteSearch(ctx, offset, 0); err != nil {
			return err
		}
	}
	detail("%d of %d articles retrieved", len(search.Articles), search.Pagination.TotalAvailable)

	step("Discriminator")
	disc, err := wf.GenerateDiscriminator(ctx)
	if err != nil {
		return err
	}
	fmt.Println(disc.DiscriminatorPrompt)

	step("Filtering (%s)", opts.strictness)
	filtered, err := wf.Filter(ctx)
	if err != nil {
		return err
	}
	okColor.Printf("    %d accepted, %d rejected\n", filtered.Accepted(), len(filtered.Articles)-filtered.Accepted())

	if len(features) > 0 {
		step("Extracting %d features", len(features))
		for _, f := range features {
			if _, err := wf.AddPendingFeature(f); err != nil {
				return err
			}
		}
		table, err := wf.ExtractFeatures(ctx)
		if err != nil {
			return err
		}
		detail("values extracted for %d articles", len(table.Values))
	}

	okColor.Printf("Done. Resume later with: smartsearch resume %s\n", wf.SessionID())
	return nil
}
