package response

// Фиксированные тела ошибок. Форма byte-for-byte стабильна.
var (
	ErrUnauthorized = ErrorResponse{
		Error: "Unauthorized",
	}

	ErrAlbumNotFound = ErrorResponse{
		Error: "Album not found",
	}

	ErrImageNotFound = ErrorResponse{
		Error: "Image not found",
	}

	ErrInvalidRequestFormat = ErrorResponse{
		Error: "Invalid request format",
	}
)
