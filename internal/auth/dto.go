package auth

// CredentialsDTO is the payload accepted by signup, login and logout.
type CredentialsDTO struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"fullName" validate:"max=120"`
}

func (d CredentialsDTO) IsEmpty() bool {
	return d.Email == "" || d.Password == ""
}

type SessionResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      interface{} `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
