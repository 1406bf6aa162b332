package models

type Customer struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type AuthSession struct {
	Customer     Customer `json:"customer"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

func (s *AuthSession) CustomerID() string { return s.Customer.ID }
func (s *AuthSession) Username() string   { return s.Customer.Username }
