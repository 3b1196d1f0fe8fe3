package main

import (
	"fmt"

	"github.com/bilgisen/schoolpress/internal/config"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch articles and the staff directory once and report what was found",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	articles, err := d.content.GetAllArticles(ctx)
	if err != nil {
		return err
	}
	categories, err := d.content.GetCategories(ctx)
	if err != nil {
		return err
	}
	stats, err := d.content.GetCacheStats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "articles:   %d\n", len(articles))
	fmt.Fprintf(out, "categories: %d %v\n", len(categories), categories)
	if lead, ok := content.SelectFeatured(content.SortByDateDesc(articles)); ok {
		fmt.Fprintf(out, "lead story: %s (%s)\n", lead.Title, lead.Date)
	}
	fmt.Fprintf(out, "cache:      size=%d enabled=%t ttl=%dms\n", stats.Size, stats.Enabled, stats.TTLMillis)

	entries, err := d.directory.List(ctx)
	if err != nil {
		return fmt.Errorf("staff directory: %w", err)
	}
	fmt.Fprintf(out, "staff:      %d entries\n", len(entries))
	return nil
}
