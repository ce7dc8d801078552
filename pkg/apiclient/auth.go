package apiclient

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Client) Register(email, password, name string) (*User, error) {
	var u User
	err := c.post("/auth/register", map[string]string{"email": email, "password": password, "name": name}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(email, password string) (*Token, error) {
	var t Token
	if err := c.post("/auth/login", map[string]string{"email": email, "password": password}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Me() (*User, error) {
	var u User
	if err := c.get("/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}
