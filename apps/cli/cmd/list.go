package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
)

var listCollectionFlag string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requests saved in a collection",
	Long: `List the requests saved in a collection, grouped by folder.

Examples:
  hitpost list
  hitpost list -c api.yaml`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringVarP(&listCollectionFlag, "collection", "c", getEnvString("HITPOST_COLLECTION", ""), "Collection file (env: HITPOST_COLLECTION)")
}

func listCommand(cmd *cobra.Command, args []string) error {
	path := collectionPath(listCollectionFlag)
	coll, err := collection.Load(path)
	if err != nil {
		return withExit(ExitParseError, err)
	}

	if len(coll.Requests) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No requests in %s\n", path)
		return nil
	}

	bold := color.New(color.Bold)
	if settings.GetNoColor() {
		bold.DisableColor()
	}

	byID := make(map[string]*collection.Item, len(coll.Requests))
	for i := range coll.Requests {
		byID[coll.Requests[i].ID] = &coll.Requests[i]
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	printItem := func(indent string, item *collection.Item) {
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", indent, item.ID, item.Method, item.Name, item.URL)
	}

	filed := make(map[string]bool)
	for _, folder := range coll.Folders {
		fmt.Fprintf(tw, "%s\n", bold.Sprint(folder.Name+"/"))
		for _, id := range folder.Requests {
			if item, ok := byID[id]; ok {
				printItem("  ", item)
				filed[id] = true
			}
		}
	}
	for i := range coll.Requests {
		if !filed[coll.Requests[i].ID] {
			printItem("", &coll.Requests[i])
		}
	}
	return tw.Flush()
}
