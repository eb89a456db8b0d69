package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/logger"
)

// NewRunCmd creates the run command for a one-shot automation pass.
func NewRunCmd() *cobra.Command {
	var (
		contentType    string
		category       string
		generateSocial bool
		image          string
		author         string
		tags           []string
		readTime       string
	)

	cmd := &cobra.Command{
		Use:   "run [topic]...",
		Short: "Run the automation pipeline for one or more topics",
		Long: `Aggregate source material for each topic, generate multilingual post
content and submit the posts to the backend in PENDING status.

Examples:
  # Generate a summary post about one topic
  dailybrief run "quantum computing"

  # Generate an article plus its social variant
  dailybrief run --type article --social "electric vehicles"

  # Several topics in one pass (capped by app.max_topics_per_run)
  dailybrief run "AI" "space exploration" "renewable energy"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			orch, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			topics := make([]core.TopicConfig, 0, len(args))
			for _, topic := range args {
				topics = append(topics, core.TopicConfig{
					Topic:          topic,
					Category:       category,
					ContentType:    contentType,
					GenerateSocial: generateSocial,
					Image:          image,
					Author:         author,
					Tags:           tags,
					ReadTime:       readTime,
				})
			}

			report, err := orch.Run(cmd.Context(), topics, nil)
			if err != nil {
				return err
			}

			fmt.Println(report.Summary())
			if report.Metrics.Failed > 0 {
				logger.Warn("Run finished with failures",
					"created", report.Metrics.Created, "failed", report.Metrics.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "content type: summary, article, social or informative (default from config)")
	cmd.Flags().StringVar(&category, "category", "", "post category (default Geral)")
	cmd.Flags().BoolVar(&generateSocial, "social", false, "also generate a short social variant for each topic")
	cmd.Flags().StringVar(&image, "image", "", "post image URL")
	cmd.Flags().StringVar(&author, "author", "", "post author (default from config)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "post tags (default derived from the topic)")
	cmd.Flags().StringVar(&readTime, "read-time", "", "displayed read time (default 5 min)")

	return cmd
}
