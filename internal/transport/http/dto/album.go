package dto

// Входные DTO проверяются только на форму: содержательная валидация —
// ответственность backend-а, тела пересылаются в исходном виде.

type CreateAlbumRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	CoverImageID string   `json:"cover_image_id"`
	ImageIDs     []string `json:"image_ids"`
	Tags         []string `json:"tags"`
	Published    bool     `json:"published"`
}

type UpdateAlbumRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	CoverImageID *string  `json:"cover_image_id"`
	Tags         []string `json:"tags"`
	Published    *bool    `json:"published"`
}

type AddImagesRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1"`
	Position *int     `json:"position"` // -1 означает "в конец"
}

type ReorderImagesRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required"`
}
