package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/ChaoPei/flasky/pkg/mailer/templates"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects the message without requeueing; it can never succeed.
	Drop
	// Requeue puts the message back for another attempt.
	Requeue
)

// Worker turns queued EmailJobs into delivered mail.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Logger: logger, SendTimeout: 15 * time.Second}
}

// Render produces subject, text and html bodies for job.
func Render(job EmailJob) (subject, text, html string, err error) {
	if job.Template == "" {
		return "", "", "", fmt.Errorf("email job for %q has no template", job.To)
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if s := strings.TrimSpace(job.Subject); s != "" {
		subject = s
	}
	return strings.TrimSpace(subject), text, html, nil
}

// Handle processes one raw queue message.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email message")
		return Drop
	}
	if job.To == "" {
		w.Logger.WithField("template", job.Template).Warn("email message without recipient")
		return Drop
	}
	subject, text, html, err := Render(job)
	if err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Error("render email failed")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("send email failed")
		return Requeue
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return Ack
}
