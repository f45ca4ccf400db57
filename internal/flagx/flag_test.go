package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_KeepsAllowedFlagWithValue(t *testing.T) {
	got := FilterArgs([]string{"-a", "minio:9000", "-x", "junk"}, []string{"-a"})
	assert.Equal(t, []string{"-a", "minio:9000"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	got := FilterArgs([]string{"--config=cfg.json", "-b=pics"}, []string{"--config"})
	assert.Equal(t, []string{"--config=cfg.json"}, got)
}

func TestFilterArgs_EmptyWhenNothingAllowed(t *testing.T) {
	got := FilterArgs([]string{"-a", "1"}, nil)
	assert.Empty(t, got)
}
