// Package auth decides who may sign in and what their session may reach.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/google/uuid"
)

// ErrNoSession is returned when a session id does not resolve to a record.
var ErrNoSession = errors.New("no active session")

// Options configure a Gate.
type Options struct {
	AllowedDomain string
	AdminEmail    string
	// Timeout bounds each verifier and directory call.
	Timeout time.Duration
	Now     func() time.Time
	NewID   func() string
}

// Gate turns verified identities into sessions with a directory-resolved role.
type Gate struct {
	verifier  IdentityVerifier
	directory Directory
	sessions  SessionStore
	opts      Options
}

func NewGate(verifier IdentityVerifier, directory Directory, sessions SessionStore, opts Options) *Gate {
	if opts.AllowedDomain == "" {
		opts.AllowedDomain = "pps.net"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Gate{verifier: verifier, directory: directory, sessions: sessions, opts: opts}
}

// Login verifies credential and, when the directory approves the holder,
// persists and returns a new session. No failure path writes anything.
func (g *Gate) Login(ctx context.Context, credential string) (*models.Session, error) {
	log := logger.WithComponent("auth")

	identity, err := g.verify(ctx, credential)
	if err != nil {
		if isCredentialRejection(err) {
			log.Warn().Err(err).Msg("Credential rejected")
		} else {
			log.Error().Err(err).Msg("Credential verification failed")
		}
		return nil, invalidCredentialError(err)
	}

	email := strings.TrimSpace(identity.Email)
	if !g.inDomain(email) {
		log.Warn().Str("email", email).Msg("Login from outside allowed domain")
		return nil, domainError(g.opts.AllowedDomain)
	}

	entry, err := g.lookup(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Directory lookup failed")
		return nil, notRegisteredError(err)
	}
	if entry == nil {
		log.Warn().Str("email", email).Msg("Login from unregistered email")
		return nil, notRegisteredError(nil)
	}
	if !entry.Approved {
		log.Info().Str("email", email).Msg("Login pending approval")
		return nil, pendingApprovalError()
	}

	name := identity.Name
	if name == "" {
		name = entry.Name
	}
	session := &models.Session{
		ID:        g.opts.NewID(),
		Email:     email,
		Name:      name,
		Role:      entry.Role,
		LoginTime: g.opts.Now().UTC(),
		RawToken:  identity.Token,
	}
	session.IsAdmin = g.IsAdmin(session)

	if err := g.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Str("role", string(session.Role)).Msg("Login succeeded")
	return session, nil
}

// RestoreSession returns the persisted session for id without consulting the
// directory. It returns nil, nil when there is none.
func (g *Gate) RestoreSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}
	return g.sessions.Load(ctx, id)
}

// Logout forgets the session. Unknown ids are not an error.
func (g *Gate) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := g.sessions.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithComponent("auth").Info().Str("session", id[:min(8, len(id))]).Msg("Logged out")
	return nil
}

// Refresh re-resolves the session holder against the directory. Removal or
// loss of approval ends the session; a failed lookup keeps it as is.
func (g *Gate) Refresh(ctx context.Context, id string) (*models.Session, error) {
	session, err := g.RestoreSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}

	entry, err := g.lookup(ctx, session.Email)
	if err != nil {
		logger.WithComponent("auth").Error().Err(err).Str("email", session.Email).Msg("Session refresh lookup failed")
		return nil, err
	}

	var denied error
	switch {
	case entry == nil:
		denied = notRegisteredError(nil)
	case !entry.Approved:
		denied = pendingApprovalError()
	}
	if denied != nil {
		if err := g.sessions.Delete(ctx, id); err != nil {
			return nil, err
		}
		logger.WithComponent("auth").Info().Str("email", session.Email).Msg("Session revoked on refresh")
		return nil, denied
	}

	session.Role = entry.Role
	if entry.Name != "" {
		session.Name = entry.Name
	}
	session.IsAdmin = g.IsAdmin(session)
	if err := g.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CanAccess reports whether role satisfies required under the role hierarchy.
func (g *Gate) CanAccess(role, required models.Role) bool {
	return models.CanAccess(role, required)
}

// IsAdmin reports whether s is authenticated and either holds the Admin role
// or belongs to the configured admin address.
func (g *Gate) IsAdmin(s *models.Session) bool {
	if s == nil || s.Role == "" {
		return false
	}
	if s.Role == models.RoleAdmin {
		return true
	}
	return g.opts.AdminEmail != "" && strings.EqualFold(s.Email, g.opts.AdminEmail)
}

func (g *Gate) verify(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrInvalidCredential
	}
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	return g.verifier.Verify(ctx, credential)
}

func (g *Gate) lookup(ctx context.Context, email string) (*models.DirectoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	entry, err := g.directory.Lookup(ctx, email)
	if err != nil {
		return nil, &LookupError{Email: email, Err: err}
	}
	return entry, nil
}

func (g *Gate) inDomain(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], g.opts.AllowedDomain)
}
