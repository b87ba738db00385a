package models

// Album представляет собой альбом галереи. Владелец данных — внешний
// backend API, здесь только транзитное представление.
type Album struct {
	ID           string   `json:"id"`                       // Уникальный идентификатор альбома
	Name         string   `json:"name"`                     // Название альбома
	Description  string   `json:"description,omitempty"`    // Описание альбома
	CoverImageID string   `json:"cover_image_id,omitempty"` // Идентификатор обложки
	ImageIDs     []string `json:"image_ids"`                // Упорядоченный список изображений (порядок значим)
	Tags         []string `json:"tags,omitempty"`           // Произвольные теги
	Published    bool     `json:"published"`                // Опубликован или черновик
	CreatedAt    int64    `json:"created_at"`               // Дата создания, epoch ms
	UpdatedAt    int64    `json:"updated_at"`               // Дата обновления, epoch ms
}

// ImageRef облегченная ссылка на изображение внутри альбома.
type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// AlbumWithImages денормализованное представление альбома, которое backend
// собирает для страницы просмотра. Читается как есть, не изменяется.
type AlbumWithImages struct {
	Album
	Images []ImageRef `json:"images"`
}
