package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/immichshow/immich"
)

var (
	serverURL  string
	authMethod string
	apiKey     string
	email      string
	password   string
	deleteAuth bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store server connection credentials",
	Long: `Store the Immich server URL and credentials in the credential store.

Two auth schemes are supported: a static API key (--auth apiKey) and
email/password login (--auth emailAndPassword).`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&serverURL, "url", "", "Immich server base URL")
	loginCmd.Flags().StringVar(&authMethod, "auth", "apiKey", "auth scheme: apiKey or emailAndPassword")
	loginCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (apiKey scheme)")
	loginCmd.Flags().StringVar(&email, "email", "", "account email (emailAndPassword scheme)")
	loginCmd.Flags().StringVar(&password, "password", "", "account password (emailAndPassword scheme)")
	loginCmd.Flags().BoolVar(&deleteAuth, "delete", false, "delete all stored credentials")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if deleteAuth {
		for _, key := range []string{
			immich.KeyBaseURL,
			immich.KeyAuthMethod,
			immich.KeyAPIKey,
			immich.KeyEmail,
			immich.KeyPassword,
		} {
			if err := store.Delete(key); err != nil {
				return err
			}
		}
		fmt.Println("Credentials deleted.")
		return nil
	}

	if serverURL == "" {
		return fmt.Errorf("--url is required")
	}

	entries := map[string]string{
		immich.KeyBaseURL:    serverURL,
		immich.KeyAuthMethod: authMethod,
	}

	switch immich.AuthMethod(authMethod) {
	case immich.AuthAPIKey:
		if apiKey == "" {
			return fmt.Errorf("--api-key is required for the apiKey scheme")
		}
		entries[immich.KeyAPIKey] = apiKey

	case immich.AuthEmailAndPassword:
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required for the emailAndPassword scheme")
		}
		entries[immich.KeyEmail] = email
		entries[immich.KeyPassword] = password

	default:
		return fmt.Errorf("invalid auth scheme: %s", authMethod)
	}

	for key, value := range entries {
		if err := store.Save(key, value); err != nil {
			return err
		}
	}

	fmt.Println("Credentials saved. Verify with `immichshow test`.")
	return nil
}
