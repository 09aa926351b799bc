package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/core/config"
	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitpost workspace",
	Long: `Initialize a new hitpost workspace in the current directory.

This creates:
  - hitpost.yaml          - Collection with environments and example requests
  - .hitpost.config.json  - Configuration file

Examples:
  hitpost init
  hitpost init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	collectionFile := filepath.Join(cwd, collection.DefaultFilename)
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])

	if !forceInit {
		for _, f := range []string{collectionFile, configFile} {
			if _, err := os.Stat(f); err == nil {
				return withExit(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.DefaultEnvironment = "dev"
	cfg.Collection = collection.DefaultFilename
	cfg.Headers = map[string]string{"User-Agent": "hitpost/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := exampleCollection().Save(collectionFile); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", collectionFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitpost workspace initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitpost list' to see the example requests and 'hitpost send \"Get health\"' to send one.\n")
	return nil
}

func exampleCollection() *collection.Collection {
	environment := func(name, baseURL string) env.Environment {
		return env.Environment{
			ID:        collection.GenerateID("env"),
			Name:      name,
			Variables: []env.Variable{{Key: "baseUrl", Value: baseURL, Enabled: true}},
		}
	}

	coll := &collection.Collection{
		Name:              "Example",
		ActiveEnvironment: "dev",
		Globals: []env.Variable{
			{Key: "token", Value: "change-me", Enabled: true},
		},
		Environments: []env.Environment{
			environment("dev", "http://localhost:3000"),
			environment("staging", "https://staging.api.example.com"),
			environment("prod", "https://api.example.com"),
		},
	}

	coll.Add(collection.Item{
		Name:   "Get health",
		Method: "GET",
		URL:    "{{baseUrl}}/health",
		Headers: []collection.Header{
			{Key: "Accept", Value: "application/json", Enabled: true},
		},
	}, "")

	coll.Add(collection.Item{
		Name:   "Create resource",
		Method: "POST",
		URL:    "{{baseUrl}}/resources",
		Headers: []collection.Header{
			{Key: "Content-Type", Value: "application/json", Enabled: true},
		},
		Auth:        &http.Auth{Type: http.AuthBearer, Token: "{{token}}"},
		Body:        "{\n  \"name\": \"Test Resource\"\n}",
		BodyType:    string(http.BodyText),
		TextSubtype: "json",
	}, "resources")

	coll.Add(collection.Item{
		Name:   "Search resources",
		Method: "GET",
		URL:    "{{baseUrl}}/resources",
		Params: []http.Param{
			{Key: "q", Value: "test", Enabled: true},
			{Key: "limit", Value: "10", Enabled: true},
		},
		Auth: &http.Auth{Type: http.AuthBearer, Token: "{{token}}"},
	}, "resources")

	coll.Add(collection.Item{
		Name:        "Submit form",
		Method:      "POST",
		URL:         "{{baseUrl}}/forms",
		Body:        "name=Jane\nrole=admin",
		BodyType:    string(http.BodyForm),
		FormSubtype: "multipart",
	}, "")

	return coll
}
