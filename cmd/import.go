package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/app"
	"linkhive/internal/importer"
	"linkhive/internal/models"
	"linkhive/internal/services"
)

var importFolderCollections bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <bookmarks.html>",
	Short: "Import a browser bookmarks export",
	Long: `Imports a Netscape-format bookmarks HTML file, the export format of
every major browser. New links are auto-collected in one batch after
the import; with --folder-collections they are filed into collections
named after their bookmark folders instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		user := actingUser(appInstance)

		bookmarks, err := importer.ParseNetscapeFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse bookmarks file: %w", err)
		}
		if len(bookmarks) == 0 {
			fmt.Println("No bookmarks found in file.")
			return nil
		}

		// Folder filing replaces category filing for this run.
		if importFolderCollections {
			prev := appInstance.Config.AutoCollect.Enabled
			appInstance.Config.AutoCollect.Enabled = false
			defer func() { appInstance.Config.AutoCollect.Enabled = prev }()
		}

		saved := color.New(color.FgGreen).SprintFunc()
		skipped := color.New(color.FgYellow).SprintFunc()
		failed := color.New(color.FgRed).SprintFunc()
		color.New(color.FgCyan).Printf("Importing %d bookmarks from %s\n", len(bookmarks), args[0])

		var (
			created  []*models.Link
			folders  = map[string]string{} // link id -> folder
			existing int
			failures int
		)
		for _, b := range bookmarks {
			link, isNew, err := appInstance.LinkService.SaveLink(cmd.Context(), services.SaveLinkParams{
				UserID: user,
				URL:    b.URL,
				Title:  b.Title,
				Via:    "import",
			})
			if err != nil {
				failures++
				fmt.Printf("  %s %s: %v\n", failed("failed"), b.URL, err)
				continue
			}
			if !isNew {
				existing++
				fmt.Printf("  %s %s\n", skipped("already saved"), link.URL)
				continue
			}
			created = append(created, link)
			if b.Folder != "" {
				folders[link.ID] = b.Folder
			}
			fmt.Printf("  %s %s\n", saved("saved"), link.URL)
		}

		filed := 0
		if importFolderCollections {
			filed, err = fileByFolder(cmd, appInstance, user, created, folders)
			if err != nil {
				return err
			}
		} else if appInstance.Config.AutoCollect.Enabled {
			filed = collectBatch(cmd, appInstance, user, created)
		}

		fmt.Println()
		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorder(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.Append([]string{"Imported", strconv.Itoa(len(created))})
		table.Append([]string{"Already saved", strconv.Itoa(existing)})
		table.Append([]string{"Failed", strconv.Itoa(failures)})
		table.Append([]string{"Filed into collections", strconv.Itoa(filed)})
		table.Render()
		return nil
	},
}

// fileByFolder puts each new link into a collection named after its
// bookmark folder, creating collections as needed.
func fileByFolder(cmd *cobra.Command, appInstance *app.App, user string, created []*models.Link, folders map[string]string) (int, error) {
	byName := map[string]string{} // folder name -> collection id
	filed := 0
	for _, link := range created {
		folder, ok := folders[link.ID]
		if !ok {
			continue
		}
		collectionID, ok := byName[folder]
		if !ok {
			coll, err := appInstance.CollectionService.GetOrCreateCollection(cmd.Context(), user, folder, nil, false)
			if err != nil {
				return filed, fmt.Errorf("failed to create collection '%s': %w", folder, err)
			}
			collectionID = coll.ID
			byName[folder] = collectionID
		}
		if err := appInstance.CollectionService.AddLink(cmd.Context(), user, link.ID, collectionID); err != nil {
			return filed, fmt.Errorf("failed to file link %s into '%s': %w", link.ID, folder, err)
		}
		filed++
	}
	return filed, nil
}

// collectBatch runs one auto-collection pass over the links the import
// left unfiled.
func collectBatch(cmd *cobra.Command, appInstance *app.App, user string, created []*models.Link) int {
	var unfiled []*models.Link
	for _, link := range created {
		if link.CollectionID == nil {
			unfiled = append(unfiled, link)
		}
	}
	if len(unfiled) == 0 {
		return len(created)
	}

	collections, err := appInstance.CollectionService.ListCollections(cmd.Context(), user, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: auto-collection skipped: %v\n", err)
		return len(created) - len(unfiled)
	}

	filed := len(created) - len(unfiled)
	for _, res := range appInstance.AutoCollectService.BatchProcess(cmd.Context(), unfiled, collections) {
		if res.CollectionID != "" {
			filed++
		}
	}
	return filed
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importFolderCollections, "folder-collections", false, "File bookmarks into collections named after their folders")
}
