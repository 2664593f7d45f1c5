package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	configPath := writeConfigFixture(t, home)

	stdout, stderr, err := runAnnoirc(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "annoirc ")

	stdout, stderr, err = runAnnoirc(t, binaryPath, home, "check", "--config", configPath)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "networks: 1")
	assert.Contains(t, stdout, "irc.oftc.net:6667 (plain)")
	assert.Contains(t, stdout, "#annoirc")
}

func TestSmokeCheckRejectsBrokenFile(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	configPath := filepath.Join(home, "annoirc.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[network.oftc\n"), 0o600))

	_, stderr, err := runAnnoirc(t, binaryPath, home, "check", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, stderr, "check configuration")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "annoirc-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/annoirc")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build annoirc binary: %s", string(output))
	return binaryPath
}

func runAnnoirc(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"PASSWORD_STORE_DIR="+filepath.Join(home, ".password-store"),
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(t *testing.T, home string) string {
	t.Helper()

	config := `[defaults]
nickname = "annobot"

[network.oftc]
server = "irc.oftc.net"
port = 6667
tls = false
channels = ["#annoirc"]
`

	path := filepath.Join(home, "annoirc.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path
}
