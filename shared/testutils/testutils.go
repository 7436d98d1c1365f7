package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"PROMPTVAULT_DB_DRIVER", "PROMPTVAULT_DB_HOST", "PROMPTVAULT_DB_PORT", "PROMPTVAULT_DB_USER",
	"PROMPTVAULT_DB_PASSWORD", "PROMPTVAULT_DB_NAME", "PROMPTVAULT_PROVIDER", "PROMPTVAULT_API_KEY",
	"PROMPTVAULT_ENDPOINT", "PROMPTVAULT_DEPLOYMENT", "PROMPTVAULT_API_VERSION", "PROMPTVAULT_MAX_TOKENS",
	"PROMPTVAULT_STATSD_ADDRESS",
}

// ResetConfigEnv clears every promptvault environment variable for the duration of the test.
func ResetConfigEnv(t testing.TB) {
	for _, k := range configEnvVars {
		t.Setenv(k, "")
	}
}

// MakeSqliteConfig returns a config backed by a fresh SQLite file in a temp dir.
func MakeSqliteConfig(t testing.TB) *hctx.ClientConfig {
	return &hctx.ClientConfig{
		Driver:     "sqlite",
		Database:   filepath.Join(t.TempDir(), hctx.DefaultDatabase+".db"),
		Provider:   "azure",
		ApiKey:     "test-key",
		Deployment: hctx.DefaultDeployment,
		ApiVersion: hctx.DefaultApiVersion,
		MaxTokens:  hctx.DefaultMaxTokens,
	}
}

// RunFakeCompletionServer serves chat completions whose content is respond(user prompt). The server
// is shut down when the test ends.
func RunFakeCompletionServer(t testing.TB, respond func(prompt string) string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: respond(req.Messages[len(req.Messages)-1].Content),
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server
}
