package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/forms"
	"github.com/muurk/lmsadmin/internal/wizard"
)

func init() {
	rootCmd.AddCommand(listingsCmd)
	listingsCmd.AddCommand(listingsCreateCmd)
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Manage marketplace listings",
}

var listingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing with the interactive wizard",
	Long: `Open the listing creation wizard.

The wizard collects the listing details, pricing, availability and images,
then shows a review step before submitting. Images are added with ctrl+a
and sent as a multipart upload; the backend requires at least one.`,
	Args: cobra.NoArgs,
	RunE: runListingsCreate,
}

func runListingsCreate(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	if !isInteractive() {
		return fmt.Errorf("listings create needs an interactive terminal")
	}

	c, err := forms.NewListingWizard(svc.Listings, wizard.Options{MaxAttachments: settings.MaxAttachments})
	if err != nil {
		return err
	}
	return runWizard(cmd, "Create Listing", c)
}
