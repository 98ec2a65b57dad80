package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Look up and import products",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <barcode>...",
		Short: "Find products by barcode, importing unknown ones from Open Food Facts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			products := make([]*entity.Product, 0, len(args))
			for _, barcode := range args {
				p, err := a.Importer.FindOrFetchByBarcode(ctx, barcode)
				if err != nil {
					return err
				}
				products = append(products, p)
			}
			return c.printJSON(products)
		},
	})
	return cmd
}

func (c *cli) recipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage recipes used to scope recorded purchases",
	}

	var name string
	var barcodes []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a recipe from ingredient barcodes",
		Long: `Creates a recipe whose ingredients are the products with the given barcodes.
Barcodes not yet in the catalog are imported first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			recipe := &entity.Recipe{Name: name, IngredientProductIDs: make([]uuid.UUID, 0, len(barcodes))}
			for _, barcode := range barcodes {
				p, err := a.Importer.FindOrFetchByBarcode(ctx, barcode)
				if err != nil {
					return err
				}
				recipe.IngredientProductIDs = append(recipe.IngredientProductIDs, p.ID)
			}
			if err := a.Recipes.Create(ctx, recipe); err != nil {
				return err
			}
			return c.printJSON(recipe)
		},
	}
	create.Flags().StringVar(&name, "name", "", "recipe name (required)")
	create.Flags().StringSliceVar(&barcodes, "barcode", nil, "ingredient barcode, repeatable")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)
	return cmd
}
