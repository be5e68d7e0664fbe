package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var (
	collectionDescription string
	collectionPinned      bool
	collectionListPinned  bool
	collectionLinksLimit  int
	collectionLinksOffset int
)

// collectionCmd represents the base command when called without any subcommands
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage link collections",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var createCollectionCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		var description *string
		if collectionDescription != "" {
			description = &collectionDescription
		}
		collection, err := appInstance.CollectionService.CreateCollection(
			cmd.Context(), actingUser(appInstance), args[0], description, collectionPinned)
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		fmt.Printf("Created collection '%s' (ID: %s)\n", collection.Name, collection.ID)
		return nil
	},
}

var listCollectionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		var pinned *bool
		if cmd.Flags().Changed("pinned") {
			pinned = &collectionListPinned
		}
		collections, err := appInstance.CollectionService.ListCollections(cmd.Context(), actingUser(appInstance), pinned)
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}

		if len(collections) == 0 {
			fmt.Println("No collections found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Name", "Description", "Pinned", "Links", "Created At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, c := range collections {
			desc := ""
			if c.Description != nil {
				desc = *c.Description
			}
			pinnedLabel := "No"
			if c.IsPinned {
				pinnedLabel = "Yes"
			}
			table.Append([]string{
				c.ID,
				c.Name,
				truncate(desc, 50),
				pinnedLabel,
				strconv.Itoa(c.LinkCount),
				c.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

var deleteCollectionCmd = &cobra.Command{
	Use:   "delete <collection-id>",
	Short: "Delete a collection, leaving its links unfiled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := appInstance.CollectionService.DeleteCollection(cmd.Context(), actingUser(appInstance), args[0]); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", args[0], err)
		}
		fmt.Printf("Deleted collection %s\n", args[0])
		return nil
	},
}

var listCollectionLinksCmd = &cobra.Command{
	Use:   "links <collection-id>",
	Short: "List the links in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}
		links, err := appInstance.CollectionService.ListLinks(
			cmd.Context(), actingUser(appInstance), args[0], pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list links for collection %s: %w", args[0], err)
		}

		if len(links) == 0 {
			fmt.Println("No links in this collection.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Title", "Domain", "Saved At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, l := range links {
			table.Append([]string{
				l.ID,
				truncate(l.TitleOrURL(), 60),
				l.Domain,
				l.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

var addLinkToCollectionCmd = &cobra.Command{
	Use:   "add-link <collection-id> <link-id>",
	Short: "File a link into a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := appInstance.CollectionService.AddLink(cmd.Context(), actingUser(appInstance), args[1], args[0]); err != nil {
			return fmt.Errorf("failed to add link %s to collection %s: %w", args[1], args[0], err)
		}
		fmt.Printf("Added link %s to collection %s\n", args[1], args[0])
		return nil
	},
}

var removeLinkFromCollectionCmd = &cobra.Command{
	Use:   "remove-link <link-id>",
	Short: "Unfile a link from its collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := appInstance.CollectionService.RemoveLink(cmd.Context(), actingUser(appInstance), args[0]); err != nil {
			return fmt.Errorf("failed to remove link %s from its collection: %w", args[0], err)
		}
		fmt.Printf("Removed link %s from its collection\n", args[0])
		return nil
	},
}

func init() {
	createCollectionCmd.Flags().StringVarP(&collectionDescription, "description", "d", "", "Description of the collection")
	createCollectionCmd.Flags().BoolVar(&collectionPinned, "pinned", false, "Pin the collection")

	listCollectionsCmd.Flags().BoolVar(&collectionListPinned, "pinned", false, "Only show pinned (or, with --pinned=false, unpinned) collections")

	listCollectionLinksCmd.Flags().IntVarP(&collectionLinksLimit, "limit", "l", 20, "Maximum number of links to list")
	listCollectionLinksCmd.Flags().IntVarP(&collectionLinksOffset, "offset", "o", 0, "Number of links to skip")

	collectionCmd.AddCommand(createCollectionCmd)
	collectionCmd.AddCommand(listCollectionsCmd)
	collectionCmd.AddCommand(deleteCollectionCmd)
	collectionCmd.AddCommand(listCollectionLinksCmd)
	collectionCmd.AddCommand(addLinkToCollectionCmd)
	collectionCmd.AddCommand(removeLinkFromCollectionCmd)

	rootCmd.AddCommand(collectionCmd)
}
