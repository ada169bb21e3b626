package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu           UserState = "main_menu"            // В главном меню
	StateAwaitingContract   UserState = "awaiting_contract"    // Ожидание договора
	StateAwaitingDamageType UserState = "awaiting_damage_type" // Выбор типа случая
	StateAwaitingPhoto      UserState = "awaiting_photo"       // Ожидание фото повреждения
	StateProcessing         UserState = "processing"           // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID         int64          // Telegram User ID
	ChatID     int64          // Telegram Chat ID
	State      UserState      // Текущее состояние пользователя
	Contract   *ContractTerms // Условия последнего загруженного договора
	ContractID string         // Имя файла договора
	DamageType string         // Выбранный тип страхового случая
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// AttachContract запоминает условия договора
func (u *User) AttachContract(source string, terms ContractTerms) {
	u.Contract = &terms
	u.ContractID = source
}

// HasContract сообщает, загружен ли договор
func (u *User) HasContract() bool {
	return u.Contract != nil
}

// Clone возвращает копию пользователя, не разделяющую условия договора
func (u *User) Clone() *User {
	c := *u
	if u.Contract != nil {
		terms := u.Contract.Clone()
		c.Contract = &terms
	}
	return &c
}
