package main

import (
	"context"
	"log"

	_ "github.com/dhima/audittrail/docs" // Import generated docs
	"github.com/dhima/audittrail/internal/api"
)

// @title Audit Trail API
// @version 1.0
// @description Records who did what, from where and when, for every decorated request.
// @description
// @description ## Features
// @description - **Audit events**: user, IP address, time, request path and a description per request
// @description - **Object references**: events can point at the object that was acted on
// @description - **Kafka mirror**: stored events are copied to a topic for downstream consumers
// @description - **Retention**: events older than the configured window are purged on a schedule

// @contact.name API Support
// @contact.url https://github.com/dhima/audittrail
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Optional "Bearer <token>"; requests without it are recorded as anonymous

func main() {
	srv, err := api.NewServer(context.Background())
	if err != nil {
		log.Fatalf("api server setup failed: %v", err)
	}
	if err := srv.Serve(); err != nil {
		log.Fatalf("api server stopped: %v", err)
	}
}
