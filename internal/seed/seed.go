// Package seed fills a fresh database with a demo workspace.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/oficina/chat/internal/app/models/dto"
	appServices "github.com/oficina/chat/internal/app/services"
	"github.com/oficina/chat/internal/pkg/apperrors"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "Oficina123!"

// Services are the application services the seeder drives
type Services struct {
	Auth      appServices.AuthService
	Workspace appServices.WorkspaceService
	Chat      appServices.ChatService
}

type demoUser struct {
	email string
	name  string
}

var (
	owner  = demoUser{email: "ada@oficina.local", name: "Ada Lovelace"}
	guests = []demoUser{
		{email: "grace@oficina.local", name: "Grace Hopper"},
		{email: "linus@oficina.local", name: "Linus Torvalds"},
	}
)

// CreateDemoData registers the demo accounts and, on first run, a workspace
// with every guest accepted, a second channel and a welcome message. Re-runs
// find the owner account and skip the workspace.
func CreateDemoData(ctx context.Context, svc Services, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo data...")

	ownerID, created, err := ensureUser(ctx, svc.Auth, owner)
	if err != nil {
		return err
	}
	if !created {
		lgr.Info().Str("email", owner.email).Msg("Demo owner already exists, skipping workspace creation")
	}

	var finalErr error
	guestIDs := make([]string, 0, len(guests))
	for _, g := range guests {
		id, _, err := ensureUser(ctx, svc.Auth, g)
		if err != nil {
			lgr.Error().Err(err).Str("email", g.email).Msg("Error creating demo user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		guestIDs = append(guestIDs, id)
	}
	if !created {
		return finalErr
	}

	ws, err := svc.Workspace.CreateWorkspace(ctx, ownerID, &dto.CreateWorkspaceRequest{Name: "Oficina HQ"})
	if err != nil {
		return errors.Join(finalErr, fmt.Errorf("create demo workspace: %w", err))
	}

	for i, id := range guestIDs {
		if _, err := svc.Workspace.InviteMember(ctx, ownerID, ws.ID, &dto.InviteMemberRequest{Email: guests[i].email}); err != nil {
			lgr.Error().Err(err).Str("userId", id).Msg("Error inviting demo user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if _, err := svc.Workspace.AcceptInvitation(ctx, id, ws.ID); err != nil {
			lgr.Error().Err(err).Str("userId", id).Msg("Error accepting demo invitation")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if _, err := svc.Chat.CreateGroup(ctx, ownerID, ws.ID, &dto.CreateChatGroupRequest{
		Name:        "random",
		Description: "Off-topic chatter",
		Visibility:  "public",
	}); err != nil && !errors.Is(err, apperrors.ErrGroupAlreadyExists) {
		lgr.Error().Err(err).Msg("Error creating demo channel")
		finalErr = errors.Join(finalErr, err)
	}

	groups, err := svc.Chat.ListGroups(ctx, ownerID, ws.ID)
	if err != nil {
		return errors.Join(finalErr, err)
	}
	if len(groups) > 0 {
		if _, err := svc.Chat.SendMessage(ctx, ownerID, groups[0].ID, &dto.CreateChatMessageRequest{
			Content: "Welcome to Oficina HQ!",
			Kind:    "system",
		}); err != nil {
			lgr.Error().Err(err).Msg("Error posting welcome message")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Str("workspaceId", ws.ID).Int("guests", len(guestIDs)).Msg("Demo data created")
	return finalErr
}

// ensureUser registers u, or logs in when the email is taken. created
// reports whether the account is new.
func ensureUser(ctx context.Context, auth appServices.AuthService, u demoUser) (string, bool, error) {
	resp, err := auth.Register(ctx, &dto.RegisterRequest{Email: u.email, Password: DemoPassword, Name: u.name})
	if err == nil {
		return resp.User.ID, true, nil
	}
	if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		return "", false, fmt.Errorf("register %s: %w", u.email, err)
	}

	resp, err = auth.Login(ctx, &dto.LoginRequest{Email: u.email, Password: DemoPassword})
	if err != nil {
		return "", false, fmt.Errorf("login %s: %w", u.email, err)
	}
	return resp.User.ID, false, nil
}
