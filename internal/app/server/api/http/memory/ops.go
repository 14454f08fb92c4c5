package memory

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-create",
		Method:      http.MethodPost,
		Path:        "/api/v1/memories",
		Summary:     "Создать запись памяти",
		Description: "Сохраняет запись и индексирует её в векторной памяти владельца.",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/memories/{id}",
		Summary:     "Получить запись памяти",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/memories/{id}",
		Summary:     "Обновить запись памяти",
		Description: "Применяет переданные поля и переиндексирует запись.",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-delete",
		Method:      http.MethodDelete,
		Path:        "/api/v1/memories/{id}",
		Summary:     "Удалить запись памяти",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) searchOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-search",
		Method:      http.MethodGet,
		Path:        "/api/v1/memories/search",
		Summary:     "Семантический поиск по памяти",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) cleanupOp() huma.Operation {
	return huma.Operation{
		OperationID: "memories-cleanup",
		Method:      http.MethodPost,
		Path:        "/api/v1/memories/cleanup",
		Summary:     "Удалить истёкшие записи (только суперпользователь)",
		Tags:        []string{"memories"},
		Security:    bearer,
		Middlewares: h.mw.Superuser,
	}
}
