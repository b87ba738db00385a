package models

// Image метаданные одного изображения. Поле URL может быть временным
// (presigned) — кэшировать его дольше одного ответа нельзя.
type Image struct {
	ID         string `json:"id"`               // Хэш содержимого или имя файла
	Name       string `json:"name"`             // Отображаемое имя
	URL        string `json:"url"`              // Ссылка для отображения
	UploadedAt int64  `json:"uploadedAt"`       // Время загрузки, epoch ms
	Size       int64  `json:"size,omitempty"`   // Размер в байтах
	Format     string `json:"format,omitempty"` // Формат (jpeg, png, ...)
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
}

// ImageList стабильная форма ответа GET /images независимо от того,
// какой источник изображений активен.
type ImageList struct {
	Images []Image `json:"images"`
}
