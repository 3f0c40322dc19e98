package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Smarcastic/studesq-mvp/core"
	logsvc "github.com/Smarcastic/studesq-mvp/services/logger"
)

func newTestService(t *testing.T) *ConsoleServiceMock {
	conf := &core.Config{
		AppName:          "Studesq",
		Env:              "TEST",
		TestMode:         true,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Studesq", Address: "noreply@studesq.test"},
	}
	return NewConsoleServiceMock(conf, logsvc.NewRollbarLogger(zaptest.NewLogger(t), conf))
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
	}{
		{
			name:     "templated",
			msg:      core.EmailMessage{To: []mail.Address{{Address: "bob@example.com"}}, Subject: "Hi", TemplateName: "waitlist_joined", TemplateData: map[string]string{"Email": "bob@example.com"}},
			wantSent: true,
		},
		{
			name:     "plain body",
			msg:      core.EmailMessage{To: []mail.Address{{Address: "bob@example.com"}}, Subject: "Hi", BodyStr: "hello"},
			wantSent: true,
		},
		{
			name: "no recipients",
			msg:  core.EmailMessage{Subject: "Hi", BodyStr: "hello"},
		},
		{
			name: "no content",
			msg:  core.EmailMessage{To: []mail.Address{{Address: "bob@example.com"}}, Subject: "Hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			msg := tt.msg
			svc.SendMessages(&msg)

			sent := svc.Sent()
			if !tt.wantSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			assert.True(t, sent[0].HasContent())
		})
	}
}

func TestConsoleService_format(t *testing.T) {
	svc := newTestService(t)
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: "bob@example.com"}},
		Subject:      "You're on the waitlist",
		TemplateName: "waitlist_joined",
		TemplateData: map[string]string{"Email": "bob@example.com"},
	}
	body, sent := svc.sendMessage(msg)
	require.True(t, sent)

	assert.Contains(t, body, "Subject: [Studesq] You're on the waitlist")
	assert.Contains(t, body, "To: <bob@example.com>")
	assert.Contains(t, body, "text/html")
	assert.Contains(t, msg.TextContent, "bob@example.com")
}
