package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

func (c *cli) processCmd() *cobra.Command {
	var uploader, recipe string
	cmd := &cobra.Command{
		Use:   "process <image-id>",
		Short: "Run a stored receipt image through the pipeline and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			imageID, err := parseID("image-id", args[0])
			if err != nil {
				return err
			}
			recipeID, err := parseOptionalID("recipe", recipe)
			if err != nil {
				return err
			}
			req := pipeline.Request{RecipeID: recipeID}
			if uploader != "" {
				if req.UploaderID, err = parseID("uploader", uploader); err != nil {
					return err
				}
			}

			a, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			img, err := a.Images.GetByID(ctx, imageID)
			if err != nil {
				return err
			}
			req.Image = *img
			return c.printJSON(a.Pipeline.Process(ctx, req))
		},
	}
	cmd.Flags().StringVar(&uploader, "uploader", "", "uploader id (defaults to the image's uploader)")
	cmd.Flags().StringVar(&recipe, "recipe", "", "recipe id limiting which products are recorded")
	return cmd
}
