package container

import (
	"log/slog"

	app "damage-control-bot/internal/application"
	"damage-control-bot/internal/domain/coverage"
	"damage-control-bot/internal/domain/port"
)

type Container struct {
	UserService  *app.UserService
	ClaimService *app.ClaimService
	Engine       *coverage.Engine
}

// Deps адаптеры инфраструктуры; ClaimRepo и Inspector могут быть nil
type Deps struct {
	UserRepo  port.UserRepository
	ClaimRepo port.ClaimRepository
	Detector  port.PartDetector
	Depth     port.DepthEstimator
	Inspector port.ImageInspector
	Extractor port.TextExtractor
	Logger    *slog.Logger
}

func New(engine *coverage.Engine, deps Deps) *Container {
	userService := app.NewUserService(deps.UserRepo)
	claimService := app.NewClaimService(userService, engine, app.ClaimDeps{
		Detector:  deps.Detector,
		Depth:     deps.Depth,
		Inspector: deps.Inspector,
		Extractor: deps.Extractor,
		Claims:    deps.ClaimRepo,
		Logger:    deps.Logger,
	})

	return &Container{
		UserService:  userService,
		ClaimService: claimService,
		Engine:       engine,
	}
}
