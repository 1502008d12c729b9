package cmd

import (
	"testing"

	"github.com/moamenhredeen/oascontract"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsAreBoundToConfig(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	require.NoError(t, flags.Set("openapi", "../testdata/openapi.yaml"))
	require.NoError(t, flags.Set("multipart-boundary", "fixed-boundary"))
	t.Cleanup(func() {
		flags.Set("openapi", "")
		flags.Set("multipart-boundary", "")
	})

	assert.Equal(t, "../testdata/openapi.yaml", viper.GetString(oascontract.KeyOpenAPI))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, oascontract.Config{OpenAPI: "../testdata/openapi.yaml", MultipartBoundary: "fixed-boundary"}, cfg)
}
