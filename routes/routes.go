package routes

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/config"
	"github.com/joy095/spaces/models/tax_models"
	"github.com/joy095/spaces/utils/mail"
)

// Deps are the shared services handed to every route group. Gateway, Mailer
// and Events may be nil when their backing service is not configured.
type Deps struct {
	Config     *config.Config
	DB         *pgxpool.Pool
	Taxes      *tax_models.SnapshotCache
	Gateway    clients.RazorpayClientWrapper
	Mailer     mail.Sender
	Events     clients.EventPublisher
	PlanPrices billing.PlanPrices
}
