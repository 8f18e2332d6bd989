package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.Linger)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcpconnect.yaml")
	doc := `
address: 10.0.0.7
port: 9000
connect_timeout: 250ms
engine: iouring
payload: hello
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.7", cfg.Address)
	assert.Equal(t, uint16(9000), cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, "iouring", cfg.Engine)
	assert.Equal(t, "hello", cfg.Payload)

	// Omitted keys keep their defaults
	assert.Equal(t, Default().IOTimeout, cfg.IOTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("port: [not, a, number]"), &cfg)
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"host name", func(c *Config) { c.Address = "localhost" }},
		{"ipv6", func(c *Config) { c.Address = "::1" }},
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"negative timeout", func(c *Config) { c.ConnectTimeout = -time.Second }},
		{"unknown engine", func(c *Config) { c.Engine = "epoll" }},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFlags_OverrideOnlyWhatIsSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "7070", "-linger", "0s", "-log-level", "debug"}))

	cfg := Default()
	cfg.Address = "192.168.1.2"
	require.NoError(t, flags.Apply(&cfg))

	assert.Equal(t, "192.168.1.2", cfg.Address, "unset flag must not clobber file value")
	assert.Equal(t, uint16(7070), cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.Linger)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFlags_PortOutOfRange(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "70000"}))

	cfg := Default()
	assert.Error(t, flags.Apply(&cfg))
}
