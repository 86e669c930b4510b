package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcel-courier/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSenderBuildsSimpleMessage(t *testing.T) {
	ses := &fakeSES{}
	s := NewSender(ses, "noreply@courier.test", zap.NewNop())

	require.NoError(t, s.SendEmail(context.Background(), "ops@courier.test", "Hello", "plain", "<p>html</p>"))

	require.NotNil(t, ses.input)
	assert.Equal(t, "noreply@courier.test", aws.ToString(ses.input.FromEmailAddress))
	assert.Equal(t, []string{"ops@courier.test"}, ses.input.Destination.ToAddresses)
	assert.Equal(t, "Hello", aws.ToString(ses.input.Content.Simple.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(ses.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(ses.input.Content.Simple.Body.Html.Data))
}

func TestSenderWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	s := NewSender(&fakeSES{err: boom}, "noreply@courier.test", zap.NewNop())

	err := s.SendEmail(context.Background(), "ops@courier.test", "Hello", "plain", "html")
	assert.ErrorIs(t, err, boom)
}

type recordingSender struct {
	to, subject, text, html string
}

func (r *recordingSender) SendEmail(ctx context.Context, to, subject, text, html string) error {
	r.to, r.subject, r.text, r.html = to, subject, text, html
	return nil
}

func TestSupportNotifier(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	sender := &recordingSender{}
	n := NewSupportNotifier(sender, tm, "ops@courier.test", "https://courier.test/customer-service")

	attachment := "https://files.test/1718028309000-receipt.pdf"
	msg := models.SupportMessage{
		Name:          "Ama",
		Email:         "ama@example.com",
		Message:       "Where is <b>my</b> parcel?",
		AttachmentURL: &attachment,
		CreatedAt:     time.Date(2024, 6, 10, 14, 5, 9, 0, time.UTC),
	}
	require.NoError(t, n.NotifySupportMessage(context.Background(), msg))

	assert.Equal(t, "ops@courier.test", sender.to)
	assert.Equal(t, "New customer-support message from Ama", sender.subject)
	assert.Contains(t, sender.html, "Where is &lt;b&gt;my&lt;/b&gt; parcel?")
	assert.Contains(t, sender.html, attachment)
	assert.Contains(t, sender.text, "Where is <b>my</b> parcel?")
	assert.Contains(t, sender.text, "Received 2024-06-10 14:05:09 UTC")
	assert.Contains(t, sender.text, "Support inbox: https://courier.test/customer-service")
}

func TestSupportNotifierWithoutAttachment(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	sender := &recordingSender{}
	n := NewSupportNotifier(sender, tm, "ops@courier.test", "")

	require.NoError(t, n.NotifySupportMessage(context.Background(), models.SupportMessage{Name: "Kofi", Email: "k@example.com", Message: "hi"}))
	assert.NotContains(t, sender.html, "View attachment")
	assert.NotContains(t, sender.text, "Attachment:")
}
