package ingest

import (
	"go.uber.org/fx"

	"github.com/sellerdesk/recond/internal/events"
	"github.com/sellerdesk/recond/internal/ingest/service"
)

var Module = fx.Module("ingest.service",
	fx.Provide(events.NewOutbox),
	fx.Provide(service.NewService),
)
