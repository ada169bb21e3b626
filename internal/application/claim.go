package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"damage-control-bot/internal/domain/coverage"
	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/domain/port"
)

// DefaultHistoryLimit число заявок в ответе на /history
const DefaultHistoryLimit = 5

// ErrHistoryDisabled хранилище заявок не подключено
var ErrHistoryDisabled = errors.New("claim history is disabled")

// ClaimService загружает договоры и оценивает повреждения по фото
type ClaimService struct {
	users     *UserService
	engine    *coverage.Engine
	detector  port.PartDetector
	depth     port.DepthEstimator
	inspector port.ImageInspector
	extractor port.TextExtractor
	claims    port.ClaimRepository
	logger    *slog.Logger
}

// ClaimDeps внешние зависимости сервиса; nil-поля отключают соответствующий шаг
type ClaimDeps struct {
	Detector  port.PartDetector
	Depth     port.DepthEstimator
	Inspector port.ImageInspector
	Extractor port.TextExtractor
	Claims    port.ClaimRepository
	Logger    *slog.Logger
}

// ClaimOutput содержит решение и картинку с подсветкой деталей
type ClaimOutput struct {
	Record      *entity.ClaimRecord
	Highlighted []byte
}

// ContractOutput содержит условия договора и статистику текста
type ContractOutput struct {
	Terms     entity.ContractTerms
	WordCount int
	CharCount int
}

// NewClaimService создаёт сервис проверки страховых случаев
func NewClaimService(users *UserService, engine *coverage.Engine, deps ClaimDeps) *ClaimService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimService{
		users:     users,
		engine:    engine,
		detector:  deps.Detector,
		depth:     deps.Depth,
		inspector: deps.Inspector,
		extractor: deps.Extractor,
		claims:    deps.Claims,
		logger:    logger,
	}
}

// AcceptContract извлекает текст договора, разбирает условия и прикрепляет их к пользователю.
func (s *ClaimService) AcceptContract(ctx context.Context, userID, chatID int64, filename string, data []byte) (*ContractOutput, error) {
	if s.extractor == nil {
		return nil, errors.New("text extractor is not configured")
	}

	text, err := s.extractor.ExtractText(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("extract contract text: %w", err)
	}

	out := &ContractOutput{
		Terms:     s.engine.ExtractTerms(text),
		WordCount: countWords(text),
		CharCount: len([]rune(text)),
	}

	if _, err := s.users.AttachContract(ctx, userID, chatID, filename, out.Terms); err != nil {
		return nil, err
	}

	s.logger.Info("contract analyzed",
		"user_id", userID,
		"file", filename,
		"words", out.WordCount,
		"franchise_found", out.Terms.Franchise.Found,
		"cap_found", out.Terms.Cap.Found,
		"guarantees", out.Terms.ActiveGuarantees(),
	)
	return out, nil
}

// AssessDamage проверяет фото повреждения по договору пользователя и сохраняет решение.
// После вызова пользователь возвращается в главное меню.
func (s *ClaimService) AssessDamage(ctx context.Context, userID, chatID int64, photo []byte) (*ClaimOutput, error) {
	if s.detector == nil {
		return nil, errors.New("detector is not configured")
	}

	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.users.Reset(ctx, userID); err != nil {
			s.logger.Warn("reset user state", "user_id", userID, "error", err)
		}
	}()

	if !user.HasContract() {
		return nil, ErrNoContract
	}
	if user.DamageType == "" {
		return nil, ErrNoDamageType
	}

	if s.inspector != nil {
		if err := s.inspector.CheckQuality(ctx, photo); err != nil {
			return nil, err
		}
	}

	detections, depth, err := s.analyze(ctx, photo)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Decide(detections, depth, *user.Contract, user.DamageType)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}

	record := entity.NewClaimRecord(userID, decision)
	if s.claims != nil {
		if err := s.claims.Save(ctx, record); err != nil {
			s.logger.Error("save claim", "claim_id", record.ID, "error", err)
		}
	}

	s.logger.Info("claim evaluated",
		"claim_id", record.ID,
		"user_id", userID,
		"damage_type", decision.DamageType,
		"covered", decision.Covered,
		"estimated", decision.EstimatedDamage,
		"reimbursement", decision.Reimbursement,
		"severity", decision.Severity,
	)

	var highlighted []byte
	if s.inspector != nil && decision.DetectedParts > 0 {
		highlighted, err = s.inspector.HighlightDetections(photo, s.engine.Deduplicate(detections))
		if err != nil {
			s.logger.Warn("highlight detections", "claim_id", record.ID, "error", err)
		}
	}

	return &ClaimOutput{Record: record, Highlighted: highlighted}, nil
}

// analyze параллельно запрашивает детекции и статистику глубины.
// Ошибка оценки глубины не фатальна: глубина нужна только как запасной вариант.
func (s *ClaimService) analyze(ctx context.Context, photo []byte) ([]entity.Detection, *entity.DepthStats, error) {
	var (
		detections []entity.Detection
		depth      *entity.DepthStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detections, err = s.detector.DetectParts(gctx, photo)
		if err != nil {
			return fmt.Errorf("detect parts: %w", err)
		}
		return nil
	})
	if s.depth != nil {
		g.Go(func() error {
			stats, err := s.depth.EstimateDepth(gctx, photo)
			if err != nil {
				s.logger.Warn("depth estimation failed", "error", err)
				return nil
			}
			depth = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	s.logger.Debug("image analyzed", "detections", len(detections), "depth", depth != nil)
	return detections, depth, nil
}

// History возвращает последние решения пользователя
func (s *ClaimService) History(ctx context.Context, userID int64, limit int) ([]*entity.ClaimRecord, error) {
	if s.claims == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.claims.ListByUser(ctx, userID, limit)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
