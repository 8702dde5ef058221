package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/Agus402/crm-no-country-sub000/internal/automation"
	"github.com/Agus402/crm-no-country-sub000/internal/channel"
	"github.com/Agus402/crm-no-country-sub000/internal/config"
	"github.com/Agus402/crm-no-country-sub000/internal/db"
	"github.com/Agus402/crm-no-country-sub000/internal/queue"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
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

	// The server binary runs a poller as well; the atomic claim keeps
	// concurrent pollers from double-running an item.
	poller := automation.NewPoller(queueRepo, ruleRepo, leadRepo, engine, cfg.PollInterval)
	poller.Start()
	defer poller.Stop()

	// Connect to RabbitMQ
	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer amqpConn.Close()

	ch, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.EventQueue, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var ev queue.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.Println("invalid event envelope:", err)
				d.Ack(false)
				continue
			}

			err := processEvent(ev, leadRepo, engine)
			if err != nil {
				log.Printf("failed to process %s for lead %d: %v", ev.Trigger, ev.LeadID, err)
				retryCount := headerRetryCount(d.Headers)
				if retryCount < maxEventRetries {
					// Nack redelivers the original headers unchanged, so
					// the attempt counter has to travel on a republished
					// copy of the message.
					pubErr := ch.Publish(
						"",
						q.Name,
						false,
						false,
						amqp.Publishing{
							ContentType: "application/json",
							Headers:     amqp.Table{"x-retry-count": int32(retryCount + 1)},
							Body:        d.Body,
						},
					)
					if pubErr != nil {
						log.Printf("failed to republish event for retry: %v", pubErr)
						d.Nack(false, true) // requeue as-is rather than lose the event
						continue
					}
				} else {
					log.Printf("dropping %s for lead %d after %d attempts", ev.Trigger, ev.LeadID, maxEventRetries+1)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("worker running, waiting for events...")
	<-forever
}

const maxEventRetries = 3

// headerRetryCount reads the x-retry-count header, tolerating the integer
// widths AMQP clients encode (the field table carries int32/int64, not int).
// A missing or unreadable header counts as attempt zero.
func headerRetryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

func processEvent(ev queue.Event, leads repository.LeadRepositoryInterface, engine *automation.Engine) error {
	if !ev.Trigger.Valid() {
		log.Printf("unknown trigger %q, dropping event", ev.Trigger)
		return nil
	}

	lead, err := leads.GetByID(ev.LeadID)
	if err != nil {
		return err
	}
	if lead == nil {
		log.Printf("lead %d not found, dropping event", ev.LeadID)
		return nil
	}

	return engine.OnEvent(context.Background(), ev.Trigger, lead)
}
