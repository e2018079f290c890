package service

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/ingest"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/rabbitmq"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

// Service holds all application dependencies
// This eliminates global state and enables proper dependency injection
type Service struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	RMQ    *rabbitmq.Connection

	Users         *store.UserStore
	Forms         *store.FormStore
	Responses     *store.ResponseStore
	Registrations *store.RegistrationStore

	Airtable     *airtable.Client
	Orchestrator *ingest.Orchestrator
	Dispatcher   ingest.Dispatcher
	Worker       *ingest.Worker
}

// NewService wires the stores and the ingestion pipeline on top of the
// shared infrastructure connections.
func NewService(cfg *config.Config, db *gorm.DB, rmq *rabbitmq.Connection, logger *zap.Logger) *Service {
	users := store.NewUserStore(db)
	forms := store.NewFormStore(db)
	responses := store.NewResponseStore(db)
	registrations := store.NewRegistrationStore(db)

	client := airtable.NewClient(
		cfg.Airtable.APIBaseURL,
		cfg.Airtable.PersonalToken,
		time.Duration(cfg.Ingest.HTTPTimeout)*time.Second,
		logger,
	)

	mapper := ingest.NewMapper(forms, logger)
	upserter := ingest.NewUpserter(responses, logger)
	orchestrator := ingest.NewOrchestrator(
		registrations,
		client,
		mapper,
		upserter,
		cfg.Airtable.WebhookPublicURL,
		cfg.Airtable.BaseID,
		cfg.Ingest.MaxPagesPerRun,
		logger,
	)

	return &Service{
		Config:        cfg,
		DB:            db,
		Logger:        logger,
		RMQ:           rmq,
		Users:         users,
		Forms:         forms,
		Responses:     responses,
		Registrations: registrations,
		Airtable:      client,
		Orchestrator:  orchestrator,
		Dispatcher:    ingest.NewQueueDispatcher(&cfg.Ingest, rmq, orchestrator, logger),
		Worker:        ingest.NewWorker(&cfg.Ingest, rmq, orchestrator, logger),
	}
}
