package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrIncorrectLogin is returned when no user matches the given login and
// password hash.
var ErrIncorrectLogin = errors.New("incorrect login or password")

// User is one entry in the flat-file credential store.
type User struct {
	Login           string `json:"login"`
	Password        string `json:"password"`
	PermissionGroup string `json:"permission_group"`
}

// usersFile is the on-disk shape of logins.json.
type usersFile struct {
	Users []User `json:"users"`
}

// Store is a read-only, in-memory view of logins.json.
type Store struct {
	users []User
}

// LoadStore reads and parses the credentials file at path.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logins file: %w", err)
	}
	var parsed usersFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse logins file: %w", err)
	}
	return &Store{users: parsed.Users}, nil
}

// Authenticate hashes login and password and looks for a matching user.
// Both the login and the password are stored pre-hashed in logins.json, so
// both sides of the comparison are digests.
func (s *Store) Authenticate(login, password string) (User, error) {
	hashedLogin := HashCredential(login)
	hashedPassword := HashCredential(password)
	for _, u := range s.users {
		if u.Login == hashedLogin && u.Password == hashedPassword {
			return u, nil
		}
	}
	return User{}, ErrIncorrectLogin
}

// AppendUser hashes login/password and appends a new user record to the
// credentials file at path, creating it if necessary. Used by the CLI's
// "adu" (add user) subcommand.
func AppendUser(path, login, password, permissionGroup string) error {
	var parsed usersFile
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("parse existing logins file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read logins file: %w", err)
	}

	parsed.Users = append(parsed.Users, User{
		Login:           HashCredential(login),
		Password:        HashCredential(password),
		PermissionGroup: permissionGroup,
	})

	out, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal logins file: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write logins file: %w", err)
	}
	return nil
}
