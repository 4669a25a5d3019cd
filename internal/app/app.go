package app

import (
	"context"

	"github.com/google/uuid"
)

// Application is the composition root: config, logger, credential store and
// the remote service clients, all sharing one explicitly injected session
// context. Views never reach for ambient state; they hold this.
type Application struct {
	Config      Config
	Logger      *Logger
	Credentials *CredentialStore

	Auth       *AuthClient
	Generation *GenerationClient
	Render     *RenderClient
	Agent      *AgentClient
}

func NewApplication(cfg Config, creds *CredentialStore, logger *Logger) *Application {
	if logger == nil {
		logger = OpenLogFile()
	}
	token := func() string {
		if s := creds.Session(); s != nil {
			return s.Token
		}
		return ""
	}
	return &Application{
		Config:      cfg,
		Logger:      logger,
		Credentials: creds,
		Auth:        NewAuthClient(cfg.APIBaseURL, token),
		Generation:  NewGenerationClient(cfg.APIBaseURL, token),
		Render:      NewRenderClient(cfg.APIBaseURL, token),
		Agent:       NewAgentClient(cfg.APIBaseURL, token),
	}
}

// Login authenticates and persists the credential pair.
func (a *Application) Login(ctx context.Context, username, password string) (*Session, error) {
	user, token, err := a.Auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.Credentials.Save(token, user); err != nil {
		return nil, err
	}
	a.Logger.Info("logged in", map[string]interface{}{"user": user.Username})
	return a.Credentials.Session(), nil
}

// Signup registers a new account. The caller still logs in afterwards; the
// signup endpoint does not issue a token.
func (a *Application) Signup(ctx context.Context, username, email, password string) (User, error) {
	return a.Auth.Signup(ctx, username, email, password)
}

// Logout clears both in-memory and persisted credentials regardless of what
// the remote call returns. The remote failure, if any, is reported after the
// local state is already clean.
func (a *Application) Logout(ctx context.Context) error {
	err := a.Auth.Logout(ctx)
	a.Credentials.Clear()
	if err != nil {
		a.Logger.Error("remote logout failed", map[string]interface{}{"error": err.Error()})
	}
	return err
}

// Revalidate loads the stored session and checks the token against the auth
// collaborator. Any failure degrades to "no session": the store is cleared
// and nil is returned, never an error that would take the view down.
func (a *Application) Revalidate(ctx context.Context) *Session {
	stored := a.Credentials.Load()
	if stored == nil {
		return nil
	}
	user, err := a.Auth.CurrentUser(ctx)
	if err != nil {
		a.Logger.Error("token revalidation failed", map[string]interface{}{"error": err.Error()})
		a.Credentials.Clear()
		return nil
	}
	// Refresh the identity with what the server reports now.
	if err := a.Credentials.Save(stored.Token, user); err != nil {
		a.Credentials.Clear()
		return nil
	}
	return a.Credentials.Session()
}

// NewChannel returns an unconnected event channel for a view to own. The
// view is responsible for Close on every exit path.
func (a *Application) NewChannel() *EventChannel {
	return NewEventChannel(a.Logger)
}

// NewRoomID generates a room identifier. Rooms are always caller-supplied,
// never a fixed constant.
func (a *Application) NewRoomID() string {
	return uuid.NewString()
}
