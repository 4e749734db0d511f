package client

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLogin_StoresCredentials(t *testing.T) {
	useTempConfig(t)

	var out bytes.Buffer
	require.NoError(t, runAuthLogin(&out, "secret-token", "http://geo.local:8080"))
	assert.Contains(t, out.String(), "Successfully logged in")

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "secret-token", config.APIToken)
	assert.Equal(t, "http://geo.local:8080", config.APIURL)
}

func TestAuthLogin_OverwritesExisting(t *testing.T) {
	useTempConfig(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIToken: "old", APIURL: "http://old"}))

	require.NoError(t, runAuthLogin(&bytes.Buffer{}, "", "https://new.example.com"))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Empty(t, config.APIToken)
	assert.Equal(t, "https://new.example.com", config.APIURL)
}

func TestAuthLogin_RejectsBadURL(t *testing.T) {
	useTempConfig(t)

	err := runAuthLogin(&bytes.Buffer{}, "tok", "geo.local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API URL")

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestAuthLoginCmd_Flags(t *testing.T) {
	useTempConfig(t)

	cmd := AuthLoginCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--token", "flag-token-value", "--url", "http://flag.local"})
	require.NoError(t, cmd.Execute())

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "flag-token-value", config.APIToken)
}

func TestAuthLoginCmd_PromptsForToken(t *testing.T) {
	useTempConfig(t)

	cmd := AuthLoginCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("typed-token\n"))
	cmd.SetArgs([]string{"--url", "http://prompt.local"})
	require.NoError(t, cmd.Execute())

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "typed-token", config.APIToken)
	assert.Equal(t, "http://prompt.local", config.APIURL)
}

func TestAuthLogout(t *testing.T) {
	useTempConfig(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIToken: "tok", APIURL: "http://x"}))

	cmd := AuthLogoutCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Successfully logged out")
}

func TestAuthStatus_Text(t *testing.T) {
	var out bytes.Buffer
	creds := &Credentials{APIToken: "abcdefghijklmnop", APIURL: "http://geo", TokenSource: SourceEnv}
	require.NoError(t, runAuthStatus(&out, creds, false))

	assert.Contains(t, out.String(), "API URL: http://geo")
	assert.Contains(t, out.String(), "abcd...mnop")
	assert.Contains(t, out.String(), "Source: env")
	assert.NotContains(t, out.String(), "abcdefghijklmnop")
}

func TestAuthStatus_NoToken(t *testing.T) {
	var out bytes.Buffer
	creds := &Credentials{APIURL: defaultAPIURL, TokenSource: SourceNone}
	require.NoError(t, runAuthStatus(&out, creds, false))

	assert.Contains(t, out.String(), "unauthenticated")
}

func TestAuthStatus_JSON(t *testing.T) {
	var out bytes.Buffer
	creds := &Credentials{APIToken: "abcdefghijklmnop", APIURL: "http://geo", TokenSource: SourceGlobalConfig}
	require.NoError(t, runAuthStatus(&out, creds, true))

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.Equal(t, true, status["authenticated"])
	assert.Equal(t, "global_config", status["source"])
	assert.Equal(t, "abcd...mnop", status["api_token"])
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", maskToken(""))
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "0123...cdef", maskToken("0123456789abcdef"))
}
