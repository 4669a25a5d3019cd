package app

import "context"

// AuthClient wraps the authentication collaborator.
type AuthClient struct {
	api *apiClient
}

func NewAuthClient(baseURL string, token func() string) *AuthClient {
	return &AuthClient{api: newAPIClient(baseURL, token)}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

type userResponse struct {
	User User `json:"user"`
}

func (c *AuthClient) Signup(ctx context.Context, username, email, password string) (User, error) {
	var out userResponse
	err := c.api.postJSON(ctx, "/auth/signup", signupRequest{Username: username, Email: email, Password: password}, &out)
	return out.User, err
}

// Login returns the fresh user record and the bearer token to persist.
func (c *AuthClient) Login(ctx context.Context, username, password string) (User, string, error) {
	var out loginResponse
	if err := c.api.postJSON(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &out); err != nil {
		return User{}, "", err
	}
	if out.AccessToken == "" {
		return User{}, "", &AuthError{Message: "login response carried no access token"}
	}
	return out.User, out.AccessToken, nil
}

func (c *AuthClient) Logout(ctx context.Context) error {
	return c.api.postJSON(ctx, "/auth/logout", struct{}{}, nil)
}

// CurrentUser revalidates the bearer token. An invalid or expired token
// surfaces as an AuthError.
func (c *AuthClient) CurrentUser(ctx context.Context) (User, error) {
	var out userResponse
	err := c.api.getJSON(ctx, "/auth/me", &out)
	return out.User, err
}
