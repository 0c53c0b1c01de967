package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	bodies []any
	err    error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

type captureSender struct {
	to, subject, text, html string
	err                     error
}

func (s *captureSender) Send(_ context.Context, to, subject, text, html string) error {
	s.to, s.subject, s.text, s.html = to, subject, text, html
	return s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestQueueDispatcher_PrefixesSubject(t *testing.T) {
	pub := &capturePublisher{}
	d := NewQueueDispatcher(pub, "[Flasky]")

	require.NoError(t, d.Send(context.Background(), "a@x.com", "Confirm Your Account", "confirm", map[string]any{"Username": "a"}))
	require.Len(t, pub.bodies, 1)
	job := pub.bodies[0].(EmailJob)
	assert.Equal(t, "[Flasky] Confirm Your Account", job.Subject)
	assert.Equal(t, "confirm", job.Template)
	assert.Equal(t, "a@x.com", job.To)

	assert.Error(t, (&QueueDispatcher{}).Send(context.Background(), "a@x.com", "s", "confirm", nil))
}

func TestLogDispatcher(t *testing.T) {
	d := &LogDispatcher{Logger: quietLogger(), SubjectPrefix: "[Flasky]"}
	assert.NoError(t, d.Send(context.Background(), "a@x.com", "s", "confirm", nil))
}

func TestWorker_Handle(t *testing.T) {
	sender := &captureSender{}
	w := NewWorker(sender, quietLogger())
	body, err := json.Marshal(EmailJob{
		To:       "a@x.com",
		Subject:  "[Flasky] Confirm Your Account",
		Template: "confirm",
		Data:     map[string]any{"Username": "ann", "Link": "http://app.test/confirm?token=t"},
	})
	require.NoError(t, err)

	assert.Equal(t, Ack, w.Handle(context.Background(), body))
	assert.Equal(t, "a@x.com", sender.to)
	assert.Equal(t, "[Flasky] Confirm Your Account", sender.subject)
	assert.Contains(t, sender.text, "http://app.test/confirm?token=t")
	assert.Contains(t, sender.html, "ann")
}

func TestWorker_SubjectFromTemplate(t *testing.T) {
	sender := &captureSender{}
	w := NewWorker(sender, quietLogger())
	body, _ := json.Marshal(EmailJob{To: "admin@x.com", Template: "new_user", Data: map[string]any{"Username": "ann"}})

	assert.Equal(t, Ack, w.Handle(context.Background(), body))
	assert.Equal(t, "New User", sender.subject)
}

func TestWorker_Outcomes(t *testing.T) {
	w := NewWorker(&captureSender{}, quietLogger())
	ctx := context.Background()

	assert.Equal(t, Drop, w.Handle(ctx, []byte("{not json")))
	assert.Equal(t, Drop, w.Handle(ctx, []byte(`{"template":"confirm"}`)))
	assert.Equal(t, Drop, w.Handle(ctx, []byte(`{"to":"a@x.com","template":"missing"}`)))

	failing := NewWorker(&captureSender{err: errors.New("mailgun down")}, quietLogger())
	assert.Equal(t, Requeue, failing.Handle(ctx, []byte(`{"to":"a@x.com","template":"confirm","data":{"Username":"a"}}`)))
}
