package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/ingest"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

type ingestOutput struct {
	ingest.IngestionResult
	Report *entity.ProcessingReport `json:"report,omitempty"`
}

func (c *cli) ingestCmd() *cobra.Command {
	var uploader, recipe string
	var process, includeHidden bool

	cmd := &cobra.Command{
		Use:   "ingest <file-or-directory>",
		Short: "Store receipt images and optionally process them",
		Long: `Stores one image, or every supported image under a directory, in the image
store. Identical files are detected by content hash and stored once. With
--process each stored image is run through extraction and recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			uploaderID, err := parseID("uploader", uploader)
			if err != nil {
				return err
			}
			recipeID, err := parseOptionalID("recipe", recipe)
			if err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			a, err := c.open(ctx, process)
			if err != nil {
				return err
			}
			defer a.Close()

			var results []ingest.IngestionResult
			if info.IsDir() {
				var stats ingest.DirStats
				results, stats, err = a.Ingestor.IngestDirectory(ctx, uploaderID, args[0], !includeHidden)
				if err != nil {
					return err
				}
				c.logger.Info("ingest.directory_done", "matched", stats.Matched, "succeeded", stats.Succeeded,
					"deduplicated", stats.Deduplicated, "failed", stats.Failed)
			} else {
				r, err := a.Ingestor.IngestPath(ctx, uploaderID, args[0])
				if err != nil {
					return err
				}
				results = []ingest.IngestionResult{r}
			}

			out := make([]ingestOutput, 0, len(results))
			for _, r := range results {
				o := ingestOutput{IngestionResult: r}
				if process && r.Err == "" {
					img, err := a.Images.GetByID(ctx, r.ImageID)
					if err != nil {
						return fmt.Errorf("load image %s: %w", r.ImageID, err)
					}
					report := a.Pipeline.Process(ctx, pipeline.Request{Image: *img, UploaderID: uploaderID, RecipeID: recipeID})
					o.Report = &report
				}
				out = append(out, o)
			}
			return c.printJSON(out)
		},
	}
	cmd.Flags().StringVar(&uploader, "uploader", "", "uploader id (required)")
	cmd.Flags().StringVar(&recipe, "recipe", "", "recipe id limiting which products are recorded")
	cmd.Flags().BoolVar(&process, "process", false, "process each stored image")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "include hidden files and directories")
	_ = cmd.MarkFlagRequired("uploader")
	return cmd
}
