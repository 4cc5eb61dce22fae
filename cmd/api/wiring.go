package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/integration/dashboard"
	"github.com/xavierca1/leadflow/internal/infra/integration/gemini"
	"github.com/xavierca1/leadflow/internal/infra/integration/qstash"
	"github.com/xavierca1/leadflow/internal/infra/integration/resend"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/scheduler"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func buildStore(cfg *config.Config, health *handlers.HealthHandler) (entity.LeadRepositoryInterface, func(), error) {
	if cfg.StoreDriver == "postgres" {
		db, err := database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		health.AddCheck("database", db.PingContext)
		return database.NewLeadRepository(db), func() { db.Close() }, nil
	}

	path := filepath.Join(cfg.DataDir, "leads.json")
	health.SetInfo("database", "json file "+path)
	return database.NewJSONStore(path), func() {}, nil
}

// buildSink picks where chat leads are recorded: a remote dashboard when DASHBOARD_URL
// is set, the local store otherwise.
func buildSink(cfg *config.Config, store entity.LeadRepositoryInterface, health *handlers.HealthHandler) usecase.LeadSink {
	if cfg.DashboardURL != "" {
		health.SetInfo("dashboard", "remote")
		return dashboard.NewClient(cfg.DashboardURL, cfg.DashboardAPIKey)
	}
	health.SetInfo("dashboard", "in-process")
	return usecase.StoreSink{Repo: store}
}

func buildTransport(cfg *config.Config, health *handlers.HealthHandler) mail.Transport {
	if cfg.EmailProvider == "resend" {
		health.SetInfo("email", "resend")
		return resend.NewClient(cfg.ResendURL, cfg.ResendAPIKey)
	}
	health.SetInfo("email", "smtp")
	return mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass)
}

func buildNotifier(cfg *config.Config, transport mail.Transport) usecase.LeadNotifier {
	recipients := cfg.OwnerEmails()
	if len(recipients) == 0 {
		log.Warn().Msg("OWNER_EMAIL not set, lead notifications will fail")
	}
	return mail.NewLeadNotifier(transport, cfg.Sender(), recipients, cfg.BusinessName, cfg.PhotosEmail, cfg.PhoneRegion)
}

func buildFollowUpMailer(cfg *config.Config, transport mail.Transport) usecase.FollowUpSender {
	return mail.NewFollowUpMailer(transport, cfg.Sender())
}

func buildGenerator(ctx context.Context, cfg *config.Config) (usecase.ReplyGenerator, error) {
	prompt, err := gemini.BuildSystemPrompt(gemini.PromptData{
		BusinessName:   cfg.BusinessName,
		OwnerName:      cfg.OwnerName,
		OwnerPhone:     cfg.OwnerPhone,
		PhotosEmail:    cfg.PhotosEmail,
		ServiceArea:    cfg.ServiceArea,
		MinimumBudget:  cfg.MinBudget,
		PriorityBudget: cfg.PriorityBudget,
	})
	if err != nil {
		return nil, err
	}
	return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, prompt)
}

// followUpBackend is the configured delayed-delivery backend. Publisher is nil when
// follow-ups are disabled.
type followUpBackend struct {
	Publisher usecase.FollowUpPublisher
	rabbit    *queue.RabbitMQ
	close     func()
}

func (b *followUpBackend) Close() {
	if b.close != nil {
		b.close()
	}
}

func buildFollowUpBackend(cfg *config.Config, health *handlers.HealthHandler) (*followUpBackend, error) {
	disabled := &followUpBackend{}

	if cfg.FollowUpSecret == "" && cfg.FollowUpBackend != "none" {
		log.Warn().Msg("FOLLOWUP_SECRET not set, follow-ups disabled")
		health.SetInfo("followups", "disabled")
		return disabled, nil
	}

	switch cfg.FollowUpBackend {
	case "qstash":
		client := qstash.NewClient(cfg.QStashURL, cfg.QStashToken, cfg.AppURL)
		if client == nil {
			log.Warn().Msg("QSTASH_TOKEN or APP_URL not set, follow-ups disabled")
			health.SetInfo("followups", "disabled")
			return disabled, nil
		}
		health.SetInfo("followups", "qstash")
		return &followUpBackend{Publisher: client}, nil

	case "rabbitmq":
		rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		health.AddCheck("rabbitmq", func(context.Context) error {
			if rabbit.Conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		})
		return &followUpBackend{
			Publisher: queue.NewProducer(rabbit.Ch),
			rabbit:    rabbit,
			close:     func() { rabbit.Close() },
		}, nil

	case "asynq":
		client, err := scheduler.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		health.AddCheck("redis", client.Ping)
		return &followUpBackend{Publisher: client, close: func() { client.Close() }}, nil
	}

	health.SetInfo("followups", "disabled")
	return disabled, nil
}

// startWorkers runs the consumer of the configured queue backend in the background.
// QStash calls POST /api/followup instead, so it needs none.
func startWorkers(ctx context.Context, cfg *config.Config, backend *followUpBackend, handler *usecase.SendFollowUpUseCase) error {
	if backend.Publisher == nil {
		return nil
	}

	switch cfg.FollowUpBackend {
	case "rabbitmq":
		ch, err := backend.rabbit.Channel()
		if err != nil {
			return err
		}
		worker := queue.NewWorker(ch, handler)
		go func() {
			if err := worker.Start(ctx); err != nil {
				log.Error().Err(err).Msg("rabbitmq follow-up worker stopped")
			}
		}()

	case "asynq":
		worker, err := scheduler.NewWorker(cfg.RedisURL, handler)
		if err != nil {
			return err
		}
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("asynq follow-up worker stopped")
			}
		}()
	}
	return nil
}
