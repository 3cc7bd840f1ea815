package web

import (
	"net/http"
	"time"

	"trainingops/internal/adapters/email"
	"trainingops/internal/adapters/http/middleware"
	"trainingops/internal/adapters/http/perf"
	auditStore "trainingops/internal/adapters/storage/audit"
	eventStore "trainingops/internal/adapters/storage/event"
	outboxStore "trainingops/internal/adapters/storage/outbox"
	personStore "trainingops/internal/adapters/storage/person"
	referenceStore "trainingops/internal/adapters/storage/reference"
	rosterStore "trainingops/internal/adapters/storage/roster"
)

// Stores holds all storage dependencies.
type Stores struct {
	PersonStore    personStore.Store
	ReferenceStore referenceStore.Store
	EventStore     eventStore.Store
	RosterStore    rosterStore.Store
	OutboxStore    outboxStore.Store
	AuditStore     auditStore.Store
}

// Options carries the runtime settings the handlers and middleware need.
type Options struct {
	MaxUploadBytes       int64
	SyntheticEmailDomain string
	RateLimitPerSecond   int
	SlowRequestMs        int
	OperatorKeys         map[string]string
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global runtime settings (set by NewMux)
var settings Options

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string

// SetEmailSender sets the sender used for import report mail.
func SetEmailSender(sender email.Sender, from string) {
	emailSender = sender
	emailFromAddress = from
}

// publicPaths are served without operator credentials.
var publicPaths = []string{"/healthz"}

// NewMux wires HTTP handlers for the service.
func NewMux(s *Stores, collector *perf.Collector, opts Options) http.Handler {
	stores = s
	perfCollector = collector
	settings = opts

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimitPerSecond, time.Second)
	limiter.StartSweeper(time.Minute, 5*time.Minute, nil)

	// Apply middleware: Timing -> RateLimit -> Auth -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.Authenticate(middleware.NewOperatorKeys(opts.OperatorKeys), publicPaths...),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs, publicPaths...),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/events", handleListEvents)
	mux.HandleFunc("GET /api/events/{eventID}", handleGetEvent)
	mux.HandleFunc("GET /api/events/{eventID}/roster", handleListRoster)
	mux.HandleFunc("POST /api/events/{eventID}/roster/import/preview", handleRosterPreview)
	mux.HandleFunc("POST /api/events/{eventID}/roster/import/precheck", handleRosterPrecheck)
	mux.HandleFunc("POST /api/events/{eventID}/roster/import/commit", handleRosterCommit)

	mux.HandleFunc("GET /api/people", handleListPeople)
	mux.HandleFunc("GET /api/people/{personID}", handleGetPerson)

	mux.HandleFunc("GET /api/reference/{kind}", handleListReference)

	mux.HandleFunc("GET /api/admin/perf", handleAdminPerf)
	mux.HandleFunc("GET /api/admin/audit", handleListAudit)
	mux.HandleFunc("GET /api/admin/outbox", handleListOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{entryID}/retry", handleRetryOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{entryID}/abandon", handleAbandonOutbox)
}
