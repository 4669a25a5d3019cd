package app

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// User mirrors the auth collaborator's user record.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Session is the authenticated identity. A non-nil Session always carries a
// non-empty token.
type Session struct {
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// CredentialStore persists the session token and user identity across runs,
// the terminal analogue of localStorage under fixed keys.
type CredentialStore struct {
	path    string
	session *Session
}

type storedCredentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

func DefaultCredentialPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "tutor-cli", "credentials.json")
}

// Save persists token and user atomically and updates in-memory state.
func (s *CredentialStore) Save(token string, user User) error {
	if token == "" {
		return &AuthError{Message: "refusing to store an empty token"}
	}
	s.session = &Session{UserID: user.ID, DisplayName: user.Username, Token: token}
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(storedCredentials{Token: token, User: user})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load returns the persisted session or nil. Malformed or missing data means
// "no session"; it is never fatal. The caller must revalidate the token
// against the auth collaborator before trusting it.
func (s *CredentialStore) Load() *Session {
	if s.session != nil {
		return s.session
	}
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil || stored.Token == "" {
		return nil
	}
	s.session = &Session{
		UserID:      stored.User.ID,
		DisplayName: stored.User.Username,
		Token:       stored.Token,
	}
	return s.session
}

// Clear removes both the in-memory session and the persisted file.
func (s *CredentialStore) Clear() {
	s.session = nil
	if s.path != "" {
		_ = os.Remove(s.path)
	}
}

// Session returns the in-memory session without touching disk.
func (s *CredentialStore) Session() *Session {
	return s.session
}
