package dto

// ErrorResponse respuesta de error de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination metadatos de paginación de los listados.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination calcula el envelope a partir de page/limit y el total de filas.
func NewPagination(page, limit int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset devuelve el desplazamiento de filas para la página.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
