package main

import (
	appointmentshandler "fluxor/internal/appointments/handler"
	appointmentsrepo "fluxor/internal/appointments/repository"
	appointmentssvc "fluxor/internal/appointments/service"
	authhandler "fluxor/internal/auth/handler"
	authrepo "fluxor/internal/auth/repository"
	authsvc "fluxor/internal/auth/service"
	clientshandler "fluxor/internal/clients/handler"
	clientsrepo "fluxor/internal/clients/repository"
	clientssvc "fluxor/internal/clients/service"
	"fluxor/internal/events"
	professionalshandler "fluxor/internal/professionals/handler"
	professionalsrepo "fluxor/internal/professionals/repository"
	professionalssvc "fluxor/internal/professionals/service"
	publiclinkhandler "fluxor/internal/publiclink/handler"
	publiclinkrepo "fluxor/internal/publiclink/repository"
	publiclinksvc "fluxor/internal/publiclink/service"
	reportshandler "fluxor/internal/reports/handler"
	reportsrepo "fluxor/internal/reports/repository"
	reportssvc "fluxor/internal/reports/service"
	serviceshandler "fluxor/internal/services/handler"
	servicesrepo "fluxor/internal/services/repository"
	servicessvc "fluxor/internal/services/service"
	waitlisthandler "fluxor/internal/waitlist/handler"
	waitlistrepo "fluxor/internal/waitlist/repository"
	waitlistsvc "fluxor/internal/waitlist/service"
	"fluxor/pkg/app"
	"fluxor/pkg/config"
	"fluxor/pkg/contracts"
	"fluxor/pkg/timezone"
	"fluxor/pkg/validation"
)

const ServiceName = "api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting API service")

	normalizer := timezone.New(cfg.Location())
	validator := validation.New()
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAppointmentTopic, cfg.Log)

	clientRepo := clientsrepo.NewMongoClientRepository(cfg)
	professionalRepo := professionalsrepo.NewMongoProfessionalRepository(cfg)
	serviceRepo := servicesrepo.NewMongoServiceRepository(cfg)
	appointmentRepo := appointmentsrepo.NewMongoAppointmentRepository(cfg)
	waitlistRepo := waitlistrepo.NewMongoWaitlistRepository(cfg)
	linkRepo := publiclinkrepo.NewMongoBookingLinkRepository(cfg)
	userRepo := authrepo.NewMongoUserRepository(cfg)
	reportRepo := reportsrepo.NewMongoReportsRepository(cfg)

	clientService := clientssvc.NewClientService(clientRepo, validator, cfg)
	professionalService := professionalssvc.NewProfessionalService(professionalRepo, validator, cfg)
	catalogService := servicessvc.NewCatalogService(serviceRepo, validator, cfg)
	appointmentService := appointmentssvc.NewAppointmentService(
		appointmentRepo,
		clientRepo,
		professionalRepo,
		serviceRepo,
		validator,
		normalizer,
		publisher,
		cfg,
	)
	waitlistService := waitlistsvc.NewWaitlistService(waitlistRepo, clientRepo, serviceRepo, validator, cfg)
	linkService := publiclinksvc.NewLinkService(linkRepo, clientRepo, appointmentRepo, normalizer, cfg)
	authService := authsvc.NewAuthService(userRepo, validator, cfg)
	reportsService := reportssvc.NewReportsService(reportRepo, normalizer, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(app.Handlers{
		Auth: authhandler.NewAuthHandler(authService, cfg.Log),
		Staff: []contracts.Handler{
			clientshandler.NewClientHandler(clientService, cfg.Log),
			professionalshandler.NewProfessionalHandler(professionalService, cfg.Log),
			serviceshandler.NewServiceHandler(catalogService, cfg.Log),
			appointmentshandler.NewAppointmentHandler(appointmentService, normalizer, cfg.Log),
			waitlisthandler.NewWaitlistHandler(waitlistService, cfg.Log),
			publiclinkhandler.NewLinkHandler(linkService, cfg.Log),
			reportshandler.NewReportsHandler(reportsService, cfg.Log),
		},
		Public: publiclinkhandler.NewPublicHandler(
			linkService,
			appointmentService,
			catalogService,
			professionalService,
			cfg.Log,
		),
	}, publisher)
	serverApp.Run()
}
