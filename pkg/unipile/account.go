package unipile

import "os"

// APIKeySource records where the account's API key was found.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// Account is the resolved LinkedIn account used for a run.
type Account struct {
	AccountID          string       `json:"account_id"`
	UnipileAccountID   string       `json:"unipile_account_id,omitempty"`
	Enabled            bool         `json:"enabled"`
	APIKeySource       APIKeySource `json:"api_key_source"`
	MissingCredentials []string     `json:"missing_credentials,omitempty"`
}

// ResolveAccount determines the usable account from config plus the
// UNIPILE_API_KEY environment variable. The env key wins over config.
func ResolveAccount(configKey, accountID string, enabled bool) Account {
	acct := Account{
		AccountID:        accountID,
		UnipileAccountID: accountID,
		Enabled:          enabled,
		APIKeySource:     KeySourceNone,
	}

	switch {
	case os.Getenv("UNIPILE_API_KEY") != "":
		acct.APIKeySource = KeySourceEnv
	case configKey != "":
		acct.APIKeySource = KeySourceConfig
	default:
		acct.MissingCredentials = append(acct.MissingCredentials, "api_key")
	}
	if accountID == "" {
		acct.MissingCredentials = append(acct.MissingCredentials, "account_id")
	}
	return acct
}

// Key returns the API key the resolution selected.
func (a Account) Key(configKey string) string {
	if a.APIKeySource == KeySourceEnv {
		return os.Getenv("UNIPILE_API_KEY")
	}
	return configKey
}
