package unipile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAccount_ConfigKey(t *testing.T) {
	acct := ResolveAccount("sk-config", "acct-1", true)
	assert.Equal(t, KeySourceConfig, acct.APIKeySource)
	assert.True(t, acct.Enabled)
	assert.Empty(t, acct.MissingCredentials)
	assert.Equal(t, "sk-config", acct.Key("sk-config"))
}

func TestResolveAccount_EnvWinsOverConfig(t *testing.T) {
	t.Setenv("UNIPILE_API_KEY", "sk-env")
	acct := ResolveAccount("sk-config", "acct-1", true)
	assert.Equal(t, KeySourceEnv, acct.APIKeySource)
	assert.Equal(t, "sk-env", acct.Key("sk-config"))
}

func TestResolveAccount_MissingCredentials(t *testing.T) {
	acct := ResolveAccount("", "", false)
	assert.Equal(t, KeySourceNone, acct.APIKeySource)
	assert.Contains(t, acct.MissingCredentials, "api_key")
	assert.Contains(t, acct.MissingCredentials, "account_id")
	assert.False(t, acct.Enabled)
}
