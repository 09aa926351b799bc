package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

var (
	validateCollectionFlag string
	validateEnvFlag        string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check saved requests without sending them",
	Long: `Check every request in a collection without sending it.

Each request is resolved against the environment, then its method and URL are
checked. Placeholders left unresolved are reported as errors.

Examples:
  hitpost validate
  hitpost validate -c api.yaml -e staging`,
	Args: cobra.NoArgs,
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVarP(&validateCollectionFlag, "collection", "c", getEnvString("HITPOST_COLLECTION", ""), "Collection file (env: HITPOST_COLLECTION)")
	validateCmd.Flags().StringVarP(&validateEnvFlag, "env", "e", getEnvString("HITPOST_ENV", ""), "Environment name (env: HITPOST_ENV)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	path := collectionPath(validateCollectionFlag)
	coll, err := collection.Load(path)
	if err != nil {
		return withExit(ExitParseError, err)
	}

	envName := validateEnvFlag
	if envName == "" {
		envName = settings.DefaultEnvironment
	}

	failed := 0
	for i := range coll.Requests {
		item := &coll.Requests[i]
		if err := validateItem(cmd, coll, item, envName); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s (%s): %v\n", item.Name, item.ID, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%s)\n", item.Name, item.ID)
	}

	if failed > 0 {
		return withExit(ExitParseError, fmt.Errorf("%d of %d requests are invalid", failed, len(coll.Requests)))
	}
	return nil
}

func validateItem(cmd *cobra.Command, coll *collection.Collection, item *collection.Item, envName string) error {
	var unresolved []string
	w, err := coll.Resolve(cmd.Context(), item, collection.ResolveOptions{
		Environment: envName,
		Warn: func(format string, args ...any) {
			unresolved = append(unresolved, fmt.Sprintf(format, args...))
		},
		// OAuth2 tokens are never fetched while validating.
		FetchToken: noTokenFetch,
	})
	if err != nil {
		return err
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("%s", strings.Join(unresolved, "; "))
	}
	if _, err := http.ResolveMethod(w.Method); err != nil {
		return err
	}
	return http.ValidateURL(w.URL)
}

func noTokenFetch(context.Context, *oauth2.Config) (string, error) {
	return "validation-placeholder", nil
}
