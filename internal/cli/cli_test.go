package cli

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/predict-client/internal/mockserver"
	"github.com/actuallystonmai/predict-client/internal/mockserver/seeds"
	"github.com/actuallystonmai/predict-client/predict"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PREDICT_STORAGE", "memory")
	t.Setenv("PREDICT_MERCHANT_ID", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestURLCommand(t *testing.T) {
	out, err := runCLI(t, "url",
		"--merchant", "1A65B5A0A05A1C0F",
		"--host", "localhost:9090",
		"--insecure",
		"--view", "1",
		"--recommend", "RELATED:3",
	)
	require.NoError(t, err)
	line := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(line, "http://localhost:9090/merchants/1A65B5A0A05A1C0F?"), line)
	assert.Contains(t, line, "f=f%3ARELATED%2Cl%3A3%2Co%3A0")
	assert.Contains(t, line, "v=i%3A1")
	assert.Contains(t, line, "cp=1")
}

func TestURLCommand_MissingMerchant(t *testing.T) {
	_, err := runCLI(t, "url", "--view", "1")
	require.Error(t, err)
	assert.Equal(t, predict.CodeMissingMerchantID, predict.CodeOf(err))
}

func TestURLCommand_DuplicateLogic(t *testing.T) {
	_, err := runCLI(t, "url", "--merchant", "m", "--recommend", "HOME", "--recommend", "HOME:2")
	require.Error(t, err)
	assert.Equal(t, predict.CodeNonUniqueRecommendationLogic, predict.CodeOf(err))
}

func TestSendCommand_AgainstMockServer(t *testing.T) {
	products := seeds.Generate(50, 42, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	srv := httptest.NewServer(mockserver.New(products, mockserver.Options{}))
	defer srv.Close()

	out, err := runCLI(t, "send",
		"--merchant", "1A65B5A0A05A1C0F",
		"--host", strings.TrimPrefix(srv.URL, "http://"),
		"--insecure",
		"--view", "1",
		"--recommend", "RELATED:3",
		"--recommend", "HOME",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "RELATED (topic")
	assert.Contains(t, out, "HOME (topic")
}

func TestSendCommand_UnknownMerchant(t *testing.T) {
	srv := httptest.NewServer(mockserver.New(seeds.Generate(10, 42, time.Now()), mockserver.Options{
		Merchants: []string{"known"},
	}))
	defer srv.Close()

	_, err := runCLI(t, "send",
		"--merchant", "other",
		"--host", strings.TrimPrefix(srv.URL, "http://"),
		"--insecure",
		"--recommend", "HOME",
	)
	require.Error(t, err)
	assert.Equal(t, predict.CodeBadHTTPStatus, predict.CodeOf(err))
	assert.Contains(t, err.Error(), "Unexpected http status code 404")
}
