package app

import (
	"context"
	"errors"

	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/domain/port"
)

var (
	// ErrNoContract пользователь ещё не загрузил договор
	ErrNoContract = errors.New("contract is not uploaded")
	// ErrNoDamageType тип страхового случая не выбран
	ErrNoDamageType = errors.New("damage type is not selected")
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginContract(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingContract)
}

// BeginClaim начинает заявку; без договора возвращает ErrNoContract
func (s *UserService) BeginClaim(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !user.HasContract() {
		return nil, ErrNoContract
	}

	user.DamageType = ""
	user.SetState(entity.StateAwaitingDamageType)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChooseDamageType запоминает тип случая и переводит к ожиданию фото
func (s *UserService) ChooseDamageType(ctx context.Context, userID, chatID int64, damageType string) (*entity.User, error) {
	if damageType == "" {
		return nil, ErrNoDamageType
	}

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !user.HasContract() {
		return nil, ErrNoContract
	}

	user.DamageType = damageType
	user.SetState(entity.StateAwaitingPhoto)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AttachContract прикрепляет условия договора и возвращает в главное меню
func (s *UserService) AttachContract(ctx context.Context, userID, chatID int64, source string, terms entity.ContractTerms) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.AttachContract(source, terms)
	user.SetState(entity.StateMainMenu)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// Reset возвращает пользователя в главное меню без чтения профиля
func (s *UserService) Reset(ctx context.Context, userID int64) error {
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}
