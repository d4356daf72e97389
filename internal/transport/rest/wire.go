package rest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/servicebook/api"
	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/auth"
	"github.com/frahmantamala/servicebook/internal/claim"
	claimPostgres "github.com/frahmantamala/servicebook/internal/claim/postgres"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/machine"
	machinePostgres "github.com/frahmantamala/servicebook/internal/machine/postgres"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	maintenancePostgres "github.com/frahmantamala/servicebook/internal/maintenance/postgres"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	typePostgres "github.com/frahmantamala/servicebook/internal/maintenancetype/postgres"
	"github.com/frahmantamala/servicebook/internal/transport"
	"github.com/frahmantamala/servicebook/internal/transport/swagger"
	"github.com/frahmantamala/servicebook/internal/user"
	userPostgres "github.com/frahmantamala/servicebook/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// Dependencies is what the API needs from the process: both handles share one connection pool.
type Dependencies struct {
	Gorm      *gorm.DB
	SQL       *sqlx.DB
	Security  internal.SecurityConfig
	Publisher events.Publisher
	Logger    *slog.Logger
}

// NewHandlers builds repositories, services and handlers for every API route.
func NewHandlers(ctx context.Context, deps Dependencies) (*Handlers, error) {
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	lg = base.Logger

	userService := user.NewService(userPostgres.NewUserRepository(deps.SQL), deps.Security.BCryptCost, lg)
	tokenGen := auth.NewJWTTokenGenerator(
		deps.Security.AccessTokenSecret,
		deps.Security.RefreshTokenSecret,
		deps.Security.AccessTokenDuration,
		deps.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userService, tokenGen, lg)

	typeService := maintenancetype.NewService(typePostgres.NewMaintenanceTypeRepository(deps.Gorm), lg)
	maintenanceService := maintenance.NewService(maintenancePostgres.NewMaintenanceRepository(deps.Gorm), typeService, deps.Publisher, lg)
	claimService := claim.NewService(claimPostgres.NewClaimRepository(deps.Gorm), deps.Publisher, lg)
	machineService := machine.NewService(machinePostgres.NewMachineRepository(deps.Gorm), maintenanceService, claimService, deps.Publisher, lg)

	doc, err := swagger.Load(ctx, api.OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to load api schema: %w", err)
	}
	schema, err := swagger.SchemaHandler(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render api schema: %w", err)
	}

	return &Handlers{
		Auth:            auth.NewHandler(base, authService),
		RBAC:            auth.NewRBACAuthorization(base),
		User:            user.NewHandler(base, userService),
		Machine:         machine.NewHandler(base, machineService),
		Maintenance:     maintenance.NewHandler(base, maintenanceService),
		Claim:           claim.NewHandler(base, claimService),
		MaintenanceType: maintenancetype.NewHandler(base, typeService),
		Health:          NewHealthHandler(deps.SQL.DB),
		Schema:          schema,
	}, nil
}
