// Package mail renders and delivers account emails.
//
// Delivery goes through a Sender. With no SMTP username configured the
// LogSender is used, which writes the message to the log instead of sending it.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"sync"
	"text/template"
	"time"

	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

const (
	KindVerifyEmail     = "verify_email"
	KindResetPassword   = "reset_password"
	KindWelcome         = "welcome"
	KindPasswordChanged = "password_changed"
	KindTaskReminder    = "task_reminder"

	sendTimeout = 30 * time.Second
)

var subjects = map[string]string{
	KindVerifyEmail:     "[EventEase] Please verify your email address",
	KindResetPassword:   "[EventEase] Reset your password",
	KindWelcome:         "[EventEase] Welcome to EventEase!",
	KindPasswordChanged: "[EventEase] Password changed successfully",
	KindTaskReminder:    "[EventEase] Tasks due soon",
}

type Message struct {
	Kind    string
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ReminderTask is one line of a reminder email.
type ReminderTask struct {
	Description string
	EventName   string
	Due         string
}

type templateData struct {
	Username string
	Link     string
	Tasks    []ReminderTask
}

type Mailer struct {
	sender  Sender
	from    string
	baseURL string
	logger  *zap.Logger

	text *template.Template
	html *htmltemplate.Template

	wg sync.WaitGroup
}

// New picks the SMTP sender when credentials are configured.
func New(cfg config.MailConfig, baseURL string, logger *zap.Logger) (*Mailer, error) {
	var sender Sender
	if cfg.Username == "" {
		sender = NewLogSender(logger)
	} else {
		sender = NewSMTPSender(cfg)
	}
	return NewWithSender(sender, cfg.Sender(), baseURL, logger)
}

func NewWithSender(sender Sender, from, baseURL string, logger *zap.Logger) (*Mailer, error) {
	text, err := template.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}

	return &Mailer{
		sender:  sender,
		from:    from,
		baseURL: baseURL,
		logger:  logger,
		text:    text,
		html:    html,
	}, nil
}

func (m *Mailer) SendVerification(user *models.User, token string) {
	m.dispatch(KindVerifyEmail, user, m.baseURL+"/api/auth/verify-email/"+token, nil)
}

func (m *Mailer) SendPasswordReset(user *models.User, token string) {
	m.dispatch(KindResetPassword, user, m.baseURL+"/reset-password/"+token, nil)
}

func (m *Mailer) SendWelcome(user *models.User) {
	m.dispatch(KindWelcome, user, m.baseURL, nil)
}

func (m *Mailer) SendPasswordChanged(user *models.User) {
	m.dispatch(KindPasswordChanged, user, m.baseURL+"/reset-password", nil)
}

func (m *Mailer) SendTaskReminder(user *models.User, tasks []ReminderTask) {
	m.dispatch(KindTaskReminder, user, m.baseURL, tasks)
}

// Wait blocks until queued emails have been handed to the sender.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

// Render builds the message without sending it.
func (m *Mailer) Render(kind string, user *models.User, link string, tasks []ReminderTask) (Message, error) {
	data := templateData{Username: user.Username, Link: link, Tasks: tasks}

	var text, html bytes.Buffer
	if err := m.text.ExecuteTemplate(&text, kind+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := m.html.ExecuteTemplate(&html, kind+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	return Message{
		Kind:    kind,
		From:    m.from,
		To:      user.Email,
		Subject: subjects[kind],
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// dispatch renders synchronously and delivers in the background so request
// handlers never wait on SMTP.
func (m *Mailer) dispatch(kind string, user *models.User, link string, tasks []ReminderTask) {
	msg, err := m.Render(kind, user, link, tasks)
	if err != nil {
		m.logger.Error("Failed to render email", zap.String("kind", kind), zap.Error(err))
		metrics.Get().EmailsTotal.WithLabelValues(kind, "error").Inc()
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		err := m.sender.Send(ctx, msg)
		metrics.Get().EmailsTotal.WithLabelValues(kind, metrics.Outcome(err)).Inc()
		if err != nil {
			m.logger.Error("Failed to send email", zap.String("kind", kind), zap.String("to", msg.To), zap.Error(err))
			return
		}
		m.logger.Info("Email sent", zap.String("kind", kind), zap.String("to", msg.To))
	}()
}
