package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	sender, err := NewSendGridSender(SendGridConfig{FromEmail: "test@example.com"}, nil)
	assert.Error(t, err)
	assert.Nil(t, sender)
}

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSenderBuildsMessage(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := newSendGridSender(fake, SendGridConfig{FromEmail: "no-reply@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:       "client@example.com",
		ToName:   "Jane",
		Subject:  "Verify your email",
		HTML:     "<p>hi</p>",
		Category: "verification",
	})
	require.NoError(t, err)
	require.NotNil(t, fake.sent)
	assert.Equal(t, DefaultFromName, fake.sent.From.Name)
	assert.Equal(t, "no-reply@example.com", fake.sent.From.Address)
	assert.Equal(t, []string{"verification"}, fake.sent.Categories)
	require.Len(t, fake.sent.Personalizations, 1)
	assert.Equal(t, "client@example.com", fake.sent.Personalizations[0].To[0].Address)
}

func TestSendGridSenderErrors(t *testing.T) {
	sender := newSendGridSender(&fakeSendGrid{status: 401}, SendGridConfig{FromEmail: "a@b.com"}, nil)
	assert.ErrorContains(t, sender.Send(context.Background(), EmailMessage{To: "x@example.com"}), "status 401")

	sender = newSendGridSender(&fakeSendGrid{err: errors.New("dial tcp")}, SendGridConfig{FromEmail: "a@b.com"}, nil)
	assert.ErrorContains(t, sender.Send(context.Background(), EmailMessage{To: "x@example.com"}), "dial tcp")
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderBuildsMessage(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "no-reply@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:       "client@example.com",
		Subject:  "Verify your email",
		HTML:     "<p>hi</p>",
		Category: "verification",
	})
	require.NoError(t, err)
	require.NotNil(t, fake.input)
	require.Len(t, fake.input.EmailTags, 1)
	assert.Equal(t, "verification", aws.ToString(fake.input.EmailTags[0].Value))
	assert.Equal(t, `"Leadbox" <no-reply@example.com>`, aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"client@example.com"}, fake.input.Destination.ToAddresses)
	assert.Nil(t, fake.input.Content.Simple.Body.Text)
	assert.Equal(t, "<p>hi</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
}

func TestSESSenderWrapsError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	sender := newSESSender(fake, SESConfig{FromEmail: "no-reply@example.com", FromName: "Ops"}, nil)
	err := sender.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "s", Body: "b"})
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSESSenderNilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
