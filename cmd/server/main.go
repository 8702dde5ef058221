// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/Agus402/crm-no-country-sub000/internal/automation"
	"github.com/Agus402/crm-no-country-sub000/internal/channel"
	"github.com/Agus402/crm-no-country-sub000/internal/config"
	"github.com/Agus402/crm-no-country-sub000/internal/controller"
	"github.com/Agus402/crm-no-country-sub000/internal/db"
	"github.com/Agus402/crm-no-country-sub000/internal/handler"
	"github.com/Agus402/crm-no-country-sub000/internal/queue"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
	"github.com/Agus402/crm-no-country-sub000/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer conn.Close()

	ruleRepo := &repository.RuleRepository{DB: conn}
	leadRepo := &repository.LeadRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	queueRepo := &repository.QueueItemRepository{DB: conn}

	var mail automation.MailSender = channel.LogMailer{}
	if cfg.MailerBaseURL != "" {
		mail = channel.NewHTTPMailer(cfg.MailerBaseURL, cfg.MailerAPIKey, cfg.ChannelTimeout)
	}
	var messages automation.MessageSender = &channel.LogMessenger{}
	if cfg.MessagingBaseURL != "" {
		messages = channel.NewMessagingClient(cfg.MessagingBaseURL, cfg.MessagingAPIKey, cfg.ChannelTimeout)
	}

	dispatcher := automation.NewDispatcher(templateRepo, mail, messages)
	engine := automation.NewEngine(ruleRepo, queueRepo, dispatcher)

	// With the in-memory transport, events run through the engine inside the
	// request that raised them. With amqp, events go to the broker and the
	// worker binary executes them.
	var publisher queue.Publisher
	if cfg.EventTransport == "amqp" {
		publisher = queue.NewAMQPBus(cfg.AMQPURL, cfg.EventQueue)
	} else {
		bus := queue.NewInMemoryBus()
		queue.SubscribeEngine(bus, leadRepo, engine)
		publisher = bus
	}

	poller := automation.NewPoller(queueRepo, ruleRepo, leadRepo, engine, cfg.PollInterval)
	poller.Start()
	defer poller.Stop()

	ruleService := &service.RuleService{
		RuleRepo:     ruleRepo,
		LeadRepo:     leadRepo,
		TemplateRepo: templateRepo,
		QueueRepo:    queueRepo,
	}

	automationController := &controller.AutomationController{
		RuleService: ruleService,
		Bus:         publisher,
	}

	queueHandler := handler.NewQueueHandler(queueRepo)

	r := chi.NewRouter()

	// Rule routes
	r.Post("/rules", automationController.CreateRule)
	r.Get("/rules", automationController.ListRules)
	r.Get("/rules/{id}", automationController.GetRule)
	r.Post("/rules/{id}/activate", automationController.ActivateRule)
	r.Post("/rules/{id}/deactivate", automationController.DeactivateRule)
	r.Post("/rules/preview", automationController.RenderPreview)

	// Domain events
	r.Post("/events", automationController.FireEvent)

	// Queue audit trail
	r.Get("/queue", queueHandler.ListQueueItemsHandler)
	r.Get("/queue/stats", queueHandler.GetQueueStatsHandler)
	r.Get("/queue/{id}", queueHandler.GetQueueItemHandler)

	log.Printf("server running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
