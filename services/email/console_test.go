package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/testutil"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := testutil.Config()
	svc := NewConsoleServiceMock(conf, testutil.Logger())
	ClearSentMessages()

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "kim", Address: "kim@campus.test"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{"Username": "kim", "UID": "dWlk", "Token": "tok-en"},
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
	)

	require.Len(t, SentMessages, 1)
	msg, ok := LastSentMessage()
	require.True(t, ok)
	assert.Contains(t, msg.TextContent, conf.FrontendBaseURL+"/password-reset/dWlk/tok-en")
	assert.Contains(t, msg.HTMLContent, "kim")

	body, err := svc.(*consoleServiceMock).format(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Campus] Password Reset")
	assert.Contains(t, body, "To: \"kim\" <kim@campus.test>")
}
