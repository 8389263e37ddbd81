package service

import (
	"strings"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByProcessed):
		req.Sort = model.ByProcessed
	case strings.Contains(req.Sort, model.BySize):
		req.Sort = model.BySize
	default:
		req.Sort = model.ByCreated // по дефолту ставим сортировку по времени создания
	}

	// Валидируем порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, "asc"):
		req.Order = model.OrderASC
	default:
		req.Order = model.OrderDESC // по дефолту ставим "новое-выше"
	}
}
