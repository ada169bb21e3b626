package port

import "context"

// TextExtractor интерфейс извлечения текста договора из документа
type TextExtractor interface {
	// ExtractText возвращает текст документа; формат определяется по имени файла
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}
