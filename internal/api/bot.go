package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "damage-control-bot/internal/application"
	"damage-control-bot/internal/container"
	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/infrastructure/document"
	"damage-control-bot/internal/infrastructure/vision"
)

const (
	msgStart = `👋 Привет! Я помогаю понять, покрывает ли страховка повреждения автомобиля.

1️⃣ Загрузите договор страхования (PDF, TXT или фото)
2️⃣ Выберите тип страхового случая
3️⃣ Отправьте фото повреждения

📋 Команды:
/contract — загрузить договор
/claim — оценить повреждение
/terms — условия текущего договора
/history — последние заявки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /contract и отправьте договор. Я найду франшизу, лимит возмещения и гарантии
2️⃣ /claim и выберите тип случая
3️⃣ Отправьте фото повреждённой машины

Вы получите оценку ущерба, сумму возмещения и фото с подсвеченными деталями.

💡 Рекомендации к фото:
• Снимайте при хорошем освещении, без бликов
• Повреждённая деталь должна быть в кадре целиком
• Фото должно быть чётким

📋 Команды:
/contract /claim /terms /history /cancel`

	msgAwaitContract     = "📄 Отправьте договор страхования: PDF, TXT или фото страниц."
	msgChooseDamageType  = "🧾 Выберите тип страхового случая:"
	msgAwaitingPhoto     = "📸 Отправьте фото повреждения."
	msgCancelled         = "❌ Операция отменена. /claim — новая заявка."
	msgUnknownCommand    = "❓ Неизвестная команда. Используйте /help для справки."
	msgHint              = "🤔 Начните с /contract или /claim. Справка: /help"
	msgChooseFirst       = "👆 Сначала выберите тип случая на клавиатуре выше."
	msgNoContract        = "📄 Сначала загрузите договор: /contract"
	msgAnalyzingContract = "⏳ Читаю договор..."
	msgProcessing        = "⏳ Анализирую повреждения..."
	msgBusy              = "⏳ Уже обрабатываю предыдущее фото, подождите."
	msgUnsupportedFormat = "⚠️ Этот формат не поддерживается. Отправьте PDF, TXT или фото договора."
	msgOCRDisabled       = "⚠️ Распознавание сканов недоступно. Отправьте договор в PDF или TXT."
	msgEmptyDocument     = "⚠️ В документе не найден текст. Попробуйте другой файл."
	msgContractError     = "⚠️ Не удалось прочитать договор. Попробуйте другой файл."
	msgLowQuality        = "📷 Фото не подходит для анализа: оно размыто, слишком тёмное или с бликами. Сделайте другой снимок."
	msgProcessingError   = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgFileTooLarge      = "⚠️ Файл слишком большой (максимум 20 МБ)."
	msgHistoryError      = "⚠️ Не удалось загрузить историю заявок."
	msgNoHistory         = "🗂 История заявок не ведётся."
	msgUnknownType       = "❓ Неизвестный тип случая."
)

// maxFileSize ограничение Bot API на скачивание файлов
const maxFileSize = 20 << 20

const callbackDamageType = "dt:"

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	users      *app.UserService
	claims     *app.ClaimService
	httpClient *http.Client
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:        api,
		users:      c.UserService,
		claims:     c.ClaimService,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.wg.Add(1)
		go func(update tgbotapi.Update) {
			defer b.wg.Done()
			b.handleUpdate(ctx, update)
		}(update)
	}

	b.wg.Wait()
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in update handler", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", "user_id", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	switch {
	case msg.Document != nil:
		b.handleDocument(ctx, msg, user)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg, user)
	default:
		b.sendMessage(msg.Chat.ID, b.hintFor(user))
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.cancel(ctx, user)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "contract":
		if _, err := b.users.BeginContract(ctx, user.ID, chatID); err != nil {
			b.logger.Error("begin contract", "user_id", user.ID, "error", err)
			return
		}
		b.sendMessage(chatID, msgAwaitContract)

	case "terms":
		if !user.HasContract() {
			b.sendMessage(chatID, msgNoContract)
			return
		}
		b.sendMessage(chatID, formatTerms(user.ContractID, *user.Contract))

	case "claim":
		if _, err := b.users.BeginClaim(ctx, user.ID, chatID); err != nil {
			if errors.Is(err, app.ErrNoContract) {
				b.sendMessage(chatID, msgNoContract)
				return
			}
			b.logger.Error("begin claim", "user_id", user.ID, "error", err)
			return
		}
		reply := tgbotapi.NewMessage(chatID, msgChooseDamageType)
		reply.ReplyMarkup = damageTypeKeyboard()
		b.send(reply)

	case "history":
		b.sendHistory(ctx, chatID, user.ID)

	case "cancel":
		b.cancel(ctx, user)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатие на кнопку выбора типа случая
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	damageType, ok := parseDamageTypeCallback(cb.Data)
	if !ok || cb.Message == nil {
		b.answerCallback(cb.ID, msgUnknownType)
		return
	}

	chatID := cb.Message.Chat.ID
	_, err := b.users.ChooseDamageType(ctx, cb.From.ID, chatID, damageType)
	if err != nil {
		if errors.Is(err, app.ErrNoContract) {
			b.answerCallback(cb.ID, "")
			b.sendMessage(chatID, msgNoContract)
			return
		}
		b.logger.Error("choose damage type", "user_id", cb.From.ID, "error", err)
		b.answerCallback(cb.ID, "")
		return
	}

	b.answerCallback(cb.ID, damageTypeTitle(damageType))
	b.sendMessage(chatID, fmt.Sprintf("Тип случая: %s\n\n%s", damageTypeTitle(damageType), msgAwaitingPhoto))
}

// handleDocument принимает договор или несжатое фото повреждения
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	doc := msg.Document

	switch user.State {
	case entity.StateAwaitingContract:
		if !document.IsSupported(doc.FileName) {
			b.sendMessage(msg.Chat.ID, msgUnsupportedFormat)
			return
		}
		if doc.FileSize > maxFileSize {
			b.sendMessage(msg.Chat.ID, msgFileTooLarge)
			return
		}
		b.acceptContract(ctx, msg.Chat.ID, user, doc.FileName, doc.FileID)

	case entity.StateAwaitingPhoto:
		if !strings.HasPrefix(doc.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)
			return
		}
		if doc.FileSize > maxFileSize {
			b.sendMessage(msg.Chat.ID, msgFileTooLarge)
			return
		}
		b.assessDamage(ctx, msg.Chat.ID, user, doc.FileID)

	default:
		b.sendMessage(msg.Chat.ID, b.hintFor(user))
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	switch user.State {
	case entity.StateAwaitingContract:
		b.acceptContract(ctx, msg.Chat.ID, user, "scan.jpg", photo.FileID)
	case entity.StateAwaitingPhoto:
		b.assessDamage(ctx, msg.Chat.ID, user, photo.FileID)
	default:
		b.sendMessage(msg.Chat.ID, b.hintFor(user))
	}
}

func (b *Bot) acceptContract(ctx context.Context, chatID int64, user *entity.User, filename, fileID string) {
	b.sendMessage(chatID, msgAnalyzingContract)

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("download contract", "user_id", user.ID, "error", err)
		b.sendMessage(chatID, msgContractError)
		return
	}

	out, err := b.claims.AcceptContract(ctx, user.ID, chatID, filename, data)
	switch {
	case err == nil:
	case errors.Is(err, document.ErrUnsupportedFormat):
		b.sendMessage(chatID, msgUnsupportedFormat)
		return
	case errors.Is(err, document.ErrOCRDisabled):
		b.sendMessage(chatID, msgOCRDisabled)
		return
	case errors.Is(err, document.ErrEmptyDocument):
		b.sendMessage(chatID, msgEmptyDocument)
		return
	default:
		b.logger.Error("accept contract", "user_id", user.ID, "file", filename, "error", err)
		b.sendMessage(chatID, msgContractError)
		return
	}

	text := fmt.Sprintf("%s\n\n📊 Слов: %d, символов: %d\n\n/claim — оценить повреждение",
		formatTerms(filename, out.Terms), out.WordCount, out.CharCount)
	b.sendMessage(chatID, text)
}

func (b *Bot) assessDamage(ctx context.Context, chatID int64, user *entity.User, fileID string) {
	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("download photo", "user_id", user.ID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		if err := b.users.Reset(ctx, user.ID); err != nil {
			b.logger.Warn("reset user state", "user_id", user.ID, "error", err)
		}
		return
	}

	out, err := b.claims.AssessDamage(ctx, user.ID, chatID, imageData)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoContract):
			b.sendMessage(chatID, msgNoContract)
		case errors.Is(err, app.ErrNoDamageType):
			b.sendMessage(chatID, "🧾 Тип случая не выбран. Начните заново: /claim")
		case errors.Is(err, vision.ErrLowQuality):
			b.logger.Info("photo rejected", "user_id", user.ID, "reason", err)
			b.sendMessage(chatID, msgLowQuality)
		default:
			b.logger.Error("assess damage", "user_id", user.ID, "error", err)
			b.sendMessage(chatID, msgProcessingError)
		}
		return
	}

	if len(out.Highlighted) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "claim.jpg", Bytes: out.Highlighted})
		photo.Caption = fmt.Sprintf("🔍 Найдено деталей: %d", out.Record.Decision.DetectedParts)
		b.send(photo)
	}
	b.sendMessage(chatID, formatDecision(out.Record))
}

func (b *Bot) sendHistory(ctx context.Context, chatID, userID int64) {
	records, err := b.claims.History(ctx, userID, app.DefaultHistoryLimit)
	if err != nil {
		if errors.Is(err, app.ErrHistoryDisabled) {
			b.sendMessage(chatID, msgNoHistory)
			return
		}
		b.logger.Error("list claims", "user_id", userID, "error", err)
		b.sendMessage(chatID, msgHistoryError)
		return
	}
	b.sendMessage(chatID, formatHistory(records))
}

func (b *Bot) cancel(ctx context.Context, user *entity.User) {
	if _, err := b.users.Cancel(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Error("cancel", "user_id", user.ID, "error", err)
	}
}

// hintFor подсказка для сообщения, не подходящего к текущему шагу
func (b *Bot) hintFor(user *entity.User) string {
	switch user.State {
	case entity.StateAwaitingContract:
		return msgAwaitContract
	case entity.StateAwaitingDamageType:
		return msgChooseFirst
	case entity.StateAwaitingPhoto:
		return msgAwaitingPhoto
	case entity.StateProcessing:
		return msgBusy
	default:
		return msgHint
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxFileSize)
	}

	return data, nil
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("answer callback", "error", err)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("send message", "error", err)
	}
}

// damageTypeKeyboard клавиатура выбора типа случая, по две кнопки в ряд
func damageTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(damageTypes); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, dt := range damageTypes[i:min(i+2, len(damageTypes))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(dt.Title, callbackDamageType+dt.Code))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseDamageTypeCallback(data string) (string, bool) {
	code, ok := strings.CutPrefix(data, callbackDamageType)
	if !ok || code == "" {
		return "", false
	}
	return code, true
}
