package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Publisher puts a JSON document on the outgoing mail queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueDispatcher hands mail to the email worker through RabbitMQ.
type QueueDispatcher struct {
	Pub           Publisher
	SubjectPrefix string
}

func NewQueueDispatcher(pub Publisher, subjectPrefix string) *QueueDispatcher {
	return &QueueDispatcher{Pub: pub, SubjectPrefix: subjectPrefix}
}

func (d *QueueDispatcher) Send(ctx context.Context, to, subject, template string, data map[string]any) error {
	if d.Pub == nil {
		return errors.New("mail queue not configured")
	}
	return d.Pub.PublishJSON(ctx, EmailJob{
		To:       to,
		Subject:  prefixed(d.SubjectPrefix, subject),
		Template: template,
		Data:     data,
	})
}

// LogDispatcher renders nothing and sends nothing; it records the job in the
// log. Used when MAIL_SEND_ENABLED is false.
type LogDispatcher struct {
	Logger        *logrus.Logger
	SubjectPrefix string
}

func (d *LogDispatcher) Send(_ context.Context, to, subject, template string, _ map[string]any) error {
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"to":       to,
			"subject":  prefixed(d.SubjectPrefix, subject),
			"template": template,
		}).Info("mail sending disabled; dropping message")
	}
	return nil
}

func prefixed(prefix, subject string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return subject
	}
	return prefix + " " + subject
}
