package external_services

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
)

func TestSendEmail_BuildsHTMLMessage(t *testing.T) {
	es := NewEmailService("smtp.example.com", "587", "bot@example.com", "pw", "bot@example.com")
	var gotAddr string
	var gotTo []string
	var gotMsg string
	es.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, es.SendEmail(context.Background(), "ada@example.com", "Set your password", "<p>hi</p>"))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(gotMsg, "<p>hi</p>\r\n"))
}

func TestSendEmail_RejectsMissingParameters(t *testing.T) {
	es := NewEmailService("h", "25", "", "", "from@example.com")
	assert.Error(t, es.SendEmail(context.Background(), "", "s", "b"))
}

func TestSendEmail_HonoursCancelledContext(t *testing.T) {
	es := NewEmailService("h", "25", "", "", "from@example.com")
	es.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, es.SendEmail(ctx, "a@example.com", "s", "b"), context.Canceled)
}

func TestBuildActivationEmail_EscapesName(t *testing.T) {
	_, body, err := EmailTemplates{}.ActivationEmail(contract.LinkEmail{
		Name:      "<script>x</script>",
		Link:      "https://app.example.com/set-password?token=abc",
		ExpiresIn: "24 hours",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "token=abc")
	assert.Contains(t, body, "24 hours")
}

func TestBuildMessage_HasDate(t *testing.T) {
	msg := string(buildMessage("a@example.com", "b@example.com", "Hi", "<p>x</p>", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Contains(t, msg, "Date: Thu, 02 Jan 2025 03:04:05 +0000")
}
