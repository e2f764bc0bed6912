package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/app"
	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/introspect"
)

// ── Example classes ──────────────────────────────────────────────────────────

type Transport interface {
	Send(to, body string) string
}

type SMTPTransport struct {
	Host string
	Port int
}

func NewSMTPTransport(host string, port int) *SMTPTransport {
	return &SMTPTransport{Host: host, Port: port}
}

func (t *SMTPTransport) Send(to, body string) string {
	return fmt.Sprintf("smtp://%s:%d → %s: %s", t.Host, t.Port, to, body)
}

// loggedTransport reports every send through the application logger.
type loggedTransport struct {
	Transport
	log *zap.Logger
}

func (t *loggedTransport) Send(to, body string) string {
	out := t.Transport.Send(to, body)
	t.log.Debug("mail sent", zap.String("to", to))
	return out
}

type Mailer struct {
	Transport Transport
	From      string   `default:"noreply@example.com"`
	CC        []string `inject:"cc"`
}

// ── Service provider ─────────────────────────────────────────────────────────

type MailServiceProvider struct {
	container.BaseProvider
}

func (p *MailServiceProvider) Register(c *container.Container) error {
	if err := c.BindSingleton("Transport", "SMTPTransport"); err != nil {
		return err
	}
	c.Extend("Transport", func(instance any, c *container.Container) any {
		log, err := container.Resolve[*zap.Logger](c, "log")
		if err != nil {
			return instance
		}
		return &loggedTransport{Transport: instance.(Transport), log: log}
	})
	if err := c.When("Transport").Needs("host").Give("smtp.local"); err != nil {
		return err
	}
	return c.When("Transport").Needs("port").Give(2525)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New() // loads .env automatically
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := application.Logger()
	defer func() { _ = log.Sync() }()

	application.Classes.MustRegisterAbstract("Transport", (*Transport)(nil))
	application.Classes.MustRegister("SMTPTransport", NewSMTPTransport, introspect.Params("host", "port"))
	application.Classes.MustRegisterStruct("Mailer", &Mailer{})

	if err := application.Register(&MailServiceProvider{}); err != nil {
		log.Fatal("register provider", zap.Error(err))
	}
	if err := application.Boot(); err != nil {
		log.Fatal("boot", zap.Error(err))
	}

	mailer, err := container.ResolveWith[*Mailer](application.Container, "Mailer",
		container.Named(map[string]any{"cc": []string{"ops@example.com"}}))
	if err != nil {
		log.Fatal("resolve mailer", zap.Error(err))
	}
	log.Info("mailer ready",
		zap.String("from", mailer.From),
		zap.Strings("cc", mailer.CC),
		zap.String("sample", mailer.Transport.Send("user@example.com", "hello")))

	if err := application.Run(ctx); err != nil {
		log.Fatal("run", zap.Error(err))
	}
}
