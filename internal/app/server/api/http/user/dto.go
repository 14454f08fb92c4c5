package user

import "memvoice/internal/domain/user"

type registerInput struct {
	Body registerRequest
}

type registerRequest struct {
	Email    string  `json:"email" format:"email" example:"alice@example.com"`
	Username string  `json:"username" example:"alice" doc:"Не короче 3 символов, только буквы и цифры"`
	Password string  `json:"password" example:"correct-horse" doc:"Не короче 8 символов"`
	FullName *string `json:"full_name,omitempty" example:"Alice Liddell"`
}

type loginInput struct {
	Body loginRequest
}

type loginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct-horse"`
}

type loginOutput struct {
	Body TokenResponse
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

type userOutput struct {
	Body *user.User
}

type findInput struct {
	ID int `path:"id" example:"1" doc:"ID пользователя"`
}

type updateMeInput struct {
	Body updateUserRequest
}

type updateInput struct {
	ID   int `path:"id" example:"1" doc:"ID пользователя"`
	Body updateUserRequest
}

// updateUserRequest - все поля необязательны, отсутствующее поле не меняется
type updateUserRequest struct {
	Email       *string `json:"email,omitempty" format:"email"`
	Username    *string `json:"username,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty" doc:"Учитывается только для администраторов"`
}

func (r updateUserRequest) toInput() user.UpdateInput {
	return user.UpdateInput{
		Email:       r.Email,
		Username:    r.Username,
		FullName:    r.FullName,
		Password:    r.Password,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
	}
}
