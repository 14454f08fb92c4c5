package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Регистрация пользователя",
		Tags:        []string{"authentication"},
		Middlewares: h.mw.Public,
	}
}

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Вход и получение access токена",
		Tags:        []string{"authentication"},
		Middlewares: h.mw.Public,
	}
}

func (h *Handler) authMeOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Текущий пользователь",
		Tags:        []string{"authentication"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) readMeOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-read-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Текущий пользователь",
		Tags:        []string{"users"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) updateMeOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-update-me",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me",
		Summary:     "Обновить свой профиль",
		Description: "Поле is_superuser игнорируется.",
		Tags:        []string{"users"},
		Security:    bearer,
		Middlewares: h.mw.Active,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Получить пользователя (только суперпользователь)",
		Tags:        []string{"users"},
		Security:    bearer,
		Middlewares: h.mw.Superuser,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{id}",
		Summary:     "Обновить пользователя (только суперпользователь)",
		Tags:        []string{"users"},
		Security:    bearer,
		Middlewares: h.mw.Superuser,
	}
}
