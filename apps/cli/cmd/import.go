package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/import/curl"
	"github.com/abdul-hamid-achik/hitpost/packages/import/insomnia"
)

var (
	importCollectionFlag string
	importFolderFlag     string
	importSaveFlag       bool
	importTimeoutFlag    uint64
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Import requests from other tools",
	Long: `Import requests from other tools and convert them to hitpost requests.

Supported formats:
  curl     - curl command lines
  insomnia - Insomnia v4 export (JSON)

Examples:
  hitpost import curl "curl -X POST https://httpbin.org/post -d 'a=1'"
  hitpost import curl commands.sh --save --folder imported
  pbpaste | hitpost import curl -
  hitpost import insomnia Insomnia_export.json --save`,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file|-|command>",
	Short: "Import from curl command lines",
	Long: `Import requests from curl command lines.

The source is a single command starting with "curl", a file holding one
command per line (backslash continuations allowed), or "-" for stdin.

Without --save the converted requests are printed as YAML.

Examples:
  hitpost import curl "curl https://httpbin.org/get -H 'Accept: application/json'"
  hitpost import curl commands.sh
  hitpost import curl commands.sh --save -c api.yaml --folder legacy`,
	Args: cobra.ExactArgs(1),
	RunE: importCurlCommand,
}

var importInsomniaCmd = &cobra.Command{
	Use:   "insomnia <export-file>",
	Short: "Import from an Insomnia export",
	Long: `Import requests, folders and environments from an Insomnia v4 export.

Request groups become folders, the base environment becomes the globals and
sub-environments become environments. Insomnia's {{ _.name }} placeholders are
rewritten to {{name}}.

Without --save the converted collection is printed as YAML. With --save the
requests and environments are merged into the collection; --folder nests the
imported folders under one parent folder.

Examples:
  hitpost import insomnia export.json
  hitpost import insomnia export.json --save -c api.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: importInsomniaCommand,
}

func init() {
	for _, c := range []*cobra.Command{importCurlCmd, importInsomniaCmd} {
		c.Flags().StringVarP(&importCollectionFlag, "collection", "c", "", "Collection file to save into (default: config collection)")
		c.Flags().StringVar(&importFolderFlag, "folder", "", "Folder to file saved requests under")
		c.Flags().BoolVar(&importSaveFlag, "save", false, "Save into the collection instead of printing")
		c.Flags().Uint64Var(&importTimeoutFlag, "timeout", 0, "Timeout in milliseconds for the imported requests")
	}

	importCmd.AddCommand(importCurlCmd, importInsomniaCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	converter := curl.NewConverter(curl.WithTimeout(importTimeoutFlag))

	var (
		items []*collection.Item
		err   error
	)
	switch source := args[0]; {
	case source == "-":
		items, err = converter.ConvertReader(cmd.InOrStdin())
	case strings.HasPrefix(strings.TrimSpace(source), "curl"):
		var item *collection.Item
		item, err = converter.ConvertCommand(source)
		items = []*collection.Item{item}
	default:
		items, err = converter.ConvertFile(source)
	}
	if err != nil {
		return withExit(ExitParseError, err)
	}
	if len(items) == 0 {
		return withExit(ExitParseError, fmt.Errorf("no curl commands found"))
	}

	if !importSaveFlag {
		return printItems(cmd.OutOrStdout(), items)
	}

	path := collectionPath(importCollectionFlag)
	coll, err := loadOrCreateCollection(path)
	if err != nil {
		return err
	}

	for _, item := range items {
		saved := coll.Add(*item, importFolderFlag)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported: %s %s (%s)\n", saved.Method, saved.Name, saved.ID)
	}
	if err := coll.Save(path); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %d request(s) to %s\n", len(items), path)
	return nil
}

func importInsomniaCommand(cmd *cobra.Command, args []string) error {
	imported, err := insomnia.NewConverter(insomnia.WithTimeout(importTimeoutFlag)).ConvertFile(args[0])
	if err != nil {
		return withExit(ExitParseError, err)
	}

	if !importSaveFlag {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(imported); err != nil {
			return err
		}
		return enc.Close()
	}

	path := collectionPath(importCollectionFlag)
	coll, err := loadOrCreateCollection(path)
	if err != nil {
		return err
	}
	if coll.Name == "" {
		coll.Name = imported.Name
	}
	coll.Globals = append(coll.Globals, imported.Globals...)
	coll.Environments = append(coll.Environments, imported.Environments...)

	for i := range imported.Requests {
		item := imported.Requests[i]
		folder := imported.FolderOf(item.ID)
		if importFolderFlag != "" {
			folder = strings.Trim(importFolderFlag+"/"+folder, "/")
		}
		saved := coll.Add(item, folder)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported: %s %s (%s)\n", saved.Method, saved.Name, saved.ID)
	}
	if err := coll.Save(path); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %d request(s) and %d environment(s) to %s\n",
		len(imported.Requests), len(imported.Environments), path)
	return nil
}

func loadOrCreateCollection(path string) (*collection.Collection, error) {
	coll, err := collection.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &collection.Collection{}, nil
	case err != nil:
		return nil, withExit(ExitParseError, err)
	}
	return coll, nil
}

func printItems(w io.Writer, items []*collection.Item) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return err
	}
	return enc.Close()
}
