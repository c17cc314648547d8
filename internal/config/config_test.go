package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultBaseURI, cfg.BootstrapBaseURI)
	assert.Equal(t, 86400*time.Second, cfg.BootstrapInterval)
	assert.Equal(t, 30*time.Second, cfg.BootstrapRequestTimeout)
	assert.True(t, cfg.SupportedVersions["1.0"])
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RDAPGW_BOOTSTRAP_BASE_URI", "https://bootstrap.internal.example/rdap/")
	t.Setenv("RDAPGW_BOOTSTRAP_INTERVAL_SECONDS", "60")
	t.Setenv("RDAPGW_BOOTSTRAP_SUPPORTED_VERSIONS", "1.0,1.1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://bootstrap.internal.example/rdap/", cfg.BootstrapBaseURI)
	assert.Equal(t, 60*time.Second, cfg.BootstrapInterval)
	assert.True(t, cfg.SupportedVersions["1.0"])
	assert.True(t, cfg.SupportedVersions["1.1"])
}

func TestValidateRejectsEmptySupportedVersions(t *testing.T) {
	cfg := Default()
	cfg.SupportedVersions = map[string]bool{}
	assert.Error(t, cfg.Validate())
}

func TestFromEnvParsesRateLimitAndStaticAuthorities(t *testing.T) {
	t.Setenv("RDAPGW_BOOTSTRAP_RATE_LIMIT_MS", "250")
	t.Setenv("RDAPGW_BOOTSTRAP_BURST_SIZE", "2")
	t.Setenv("RDAPGW_STATIC_AUTHORITIES", "vrsn=https://rdap.verisign.com/rdap/;arin=https://rdap.arin.net/registry/,https://rdap2.arin.net/registry/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.BootstrapRateLimit)
	assert.Equal(t, 2, cfg.BootstrapBurstSize)

	require.Len(t, cfg.StaticAuthorities, 2)
	assert.Equal(t, "VRSN", cfg.StaticAuthorities[0].Name)
	assert.Equal(t, []string{"https://rdap.verisign.com/rdap/"}, cfg.StaticAuthorities[0].Servers)
	assert.Equal(t, "ARIN", cfg.StaticAuthorities[1].Name)
	assert.Equal(t, []string{"https://rdap.arin.net/registry/", "https://rdap2.arin.net/registry/"}, cfg.StaticAuthorities[1].Servers)
}

func TestParseStaticAuthoritiesRejectsMalformedEntry(t *testing.T) {
	_, err := ParseStaticAuthorities("not-a-key-value-pair")
	assert.Error(t, err)

	_, err = ParseStaticAuthorities("VRSN=")
	assert.Error(t, err)
}

func TestValidateRejectsNegativeRateLimitFields(t *testing.T) {
	cfg := Default()
	cfg.BootstrapRateLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.BootstrapBurstSize = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsStaticAuthorityWithNoServers(t *testing.T) {
	cfg := Default()
	cfg.StaticAuthorities = []StaticAuthority{{Name: "VRSN"}}
	assert.Error(t, cfg.Validate())
}
